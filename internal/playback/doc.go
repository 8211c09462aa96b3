// Package playback keeps a dynamic set of media resources presenting the same
// logical timestamp.
//
// The Synchronizer is the state machine. It broadcasts a target time to every
// ready resource, waits for each one to acknowledge its seek, and then
// notifies listeners. At most one round is in flight: seek requests that
// arrive while a round is draining are dropped. Bursts of resync requests
// are debounced, and OnTimeChanged notifications are throttled.
//
// The Synchronizer and Driver are not safe for concurrent use. Player owns
// both on a single event-loop goroutine and is the entry point for
// everything else.
package playback
