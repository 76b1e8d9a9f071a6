package playback

import (
	"context"
	"time"

	"github.com/glebovdev/tunequeue/internal/track"
)

// Engine decodes media locators into playable sounds.
type Engine interface {
	// Load fetches and decodes the media behind locator. The returned Sound is
	// not yet producing output.
	Load(ctx context.Context, locator string) (Sound, error)
}

// Sound is a single engine session. The controller owns at most one at a time.
type Sound interface {
	// Play starts output. onComplete is called once, from another goroutine,
	// when the media reaches its end.
	Play(onComplete func())
	Pause()
	Resume()
	// Stop halts output. The sound must not be resumed afterwards.
	Stop()
	// Release frees decoder and buffer resources.
	Release()
	Seek(position time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	SetVolume(percent int, muted bool)
}

// Store persists the last played track and cumulative listening time.
type Store interface {
	SaveLastTrack(t track.Track) error
	LastTrack() (track.Track, error)
	AddListeningTime(d time.Duration) error
	ListeningTime() (time.Duration, error)
}

// Settings are the user preferences mirrored to the remote profile.
type Settings struct {
	Shuffle bool `json:"shuffle"`
	Loop    bool `json:"loop"`
	Volume  int  `json:"volume"`
	Muted   bool `json:"muted"`
}

// SettingsSink receives preference changes. Push must not block.
type SettingsSink interface {
	Push(s Settings)
}
