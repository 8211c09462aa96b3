// Package docs provides OpenAPI documentation for the playback synchronizer control API
//
//	@title			Playback Synchronizer API
//	@version		0.1
//	@description	Control API for a player that keeps several media resources on one shared timeline.
//	@description	Seeks are applied to every resource and the player waits for all of them before rendering.
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@tag.name	player
//	@tag.description	Playback state and transport controls
//
//	@tag.name	resources
//	@tag.description	Registered resources
//
//	@tag.name	system
//	@tag.description	Health, readiness and version
package main
