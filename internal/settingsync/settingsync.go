// Package settingsync mirrors playback preferences to the remote user profile.
package settingsync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/clock"
	"github.com/glebovdev/tunequeue/internal/debounce"
	"github.com/glebovdev/tunequeue/internal/playback"
)

const (
	DefaultDebounce = 1500 * time.Millisecond
	requestTimeout  = 10 * time.Second
)

// Remote is the profile endpoint that stores the settings.
type Remote interface {
	UpdateSettings(ctx context.Context, s playback.Settings) error
}

// Syncer debounces settings changes and writes the latest value to Remote.
// Failed writes are logged and dropped; the next change retries.
type Syncer struct {
	remote    Remote
	debouncer *debounce.Debouncer

	mu     sync.Mutex
	latest playback.Settings
	synced *playback.Settings
	closed bool
}

// New creates a Syncer. A non-positive delay uses DefaultDebounce and a nil
// clock uses the real clock.
func New(remote Remote, delay time.Duration, c clock.Clock) *Syncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Syncer{
		remote:    remote,
		debouncer: debounce.New(delay, c),
	}
}

// Push records s and schedules a write. It never blocks on the network.
func (s *Syncer) Push(settings playback.Settings) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.latest = settings
	s.mu.Unlock()

	s.debouncer.Call(s.send)
}

// Close writes any pending change and stops accepting new ones.
func (s *Syncer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Flush()
}

func (s *Syncer) send() {
	s.mu.Lock()
	settings := s.latest
	if s.synced != nil && *s.synced == settings {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := s.remote.UpdateSettings(ctx, settings); err != nil {
		log.Warn().Err(err).Msg("Failed to sync settings")
		return
	}

	log.Debug().Msgf("Synced settings: %+v", settings)

	s.mu.Lock()
	s.synced = &settings
	s.mu.Unlock()
}
