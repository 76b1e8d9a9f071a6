// Package playback implements the queue-aware playback controller.
package playback

// State represents the playback state of the session.
type State int

const (
	StateIdle    State = iota // No current track
	StateLoading              // Locator resolved, waiting for the engine
	StatePlaying              // Engine is producing output
	StatePaused               // Loaded, output paused
	StateStopped              // Current track kept, nothing loaded, position reset
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
