package playback

import "github.com/glebovdev/tunequeue/internal/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted    EventType = iota // Engine began output for a new track
	EventTrackEnded                       // Track reached its end
	EventStateChanged                     // Play/pause/loading transitions
	EventQueueChanged                     // Queue, shuffle order or selection changed
	EventPlaybackStopped                  // Queue exhausted or explicit stop
	EventLoadFailed                       // Engine could not load a track
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventPlaybackStopped:
		return "playback_stopped"
	case EventLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Track the event refers to (nil for some events)
	State State        // Session state after the event
}
