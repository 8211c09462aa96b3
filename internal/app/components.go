package app

import (
	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/playback"
	"github.com/stacklok/playback-sync/internal/service/inmemory"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Player runs the synchronizer event loop
	Player *playback.Player

	// Service exposes the player to the control API
	Service *inmemory.Service

	// ConfigManager reloads the configuration file (optional)
	ConfigManager config.Manager
}
