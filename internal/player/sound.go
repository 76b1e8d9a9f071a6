package player

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

// Sound is one decoded track attached to the speaker.
type Sound struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	output   beep.SampleRate
	kind     Format

	mu       sync.Mutex
	volume   *effects.Volume
	ctrl     *beep.Ctrl
	percent  int
	muted    bool
	released bool

	stopped atomic.Bool
}

func newSound(streamer beep.StreamSeekCloser, format beep.Format, output beep.SampleRate, kind Format) *Sound {
	return &Sound{
		streamer: streamer,
		format:   format,
		output:   output,
		kind:     kind,
		percent:  100,
	}
}

// Play attaches the sound to the speaker. onComplete runs on its own
// goroutine once the media is exhausted, unless the sound was stopped first.
func (s *Sound) Play(onComplete func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl != nil || s.released {
		return
	}

	var source beep.Streamer = s.streamer
	if s.format.SampleRate != s.output {
		source = beep.Resample(ResampleQuality, s.format.SampleRate, s.output, s.streamer)
	}

	s.volume = &effects.Volume{
		Streamer: source,
		Base:     2,
		Volume:   percentToExponent(float64(s.percent)),
		Silent:   s.muted || s.percent == 0,
	}
	s.ctrl = &beep.Ctrl{Streamer: s.volume}

	done := beep.Callback(func() {
		if s.stopped.Load() || onComplete == nil {
			return
		}
		go onComplete()
	})

	speaker.Play(beep.Seq(s.ctrl, done))
}

func (s *Sound) Pause() {
	s.setPaused(true)
}

func (s *Sound) Resume() {
	s.setPaused(false)
}

func (s *Sound) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return
	}

	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop detaches the sound from the speaker without firing the completion.
func (s *Sound) Stop() {
	s.stopped.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return
	}

	speaker.Lock()
	s.ctrl.Streamer = nil
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *Sound) Release() {
	s.stopped.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true

	speaker.Lock()
	if s.ctrl != nil {
		s.ctrl.Streamer = nil
	}
	err := s.streamer.Close()
	speaker.Unlock()

	if err != nil {
		log.Debug().Err(err).Msg("Failed to close decoder")
	}
}

// Seek moves to position, clamped to the media bounds.
func (s *Sound) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}

	n := s.format.SampleRate.N(position)
	if n < 0 {
		n = 0
	}
	if last := s.streamer.Len() - 1; n > last && last >= 0 {
		n = last
	}

	speaker.Lock()
	defer speaker.Unlock()
	return s.streamer.Seek(n)
}

func (s *Sound) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	return s.format.SampleRate.D(s.streamer.Position())
}

func (s *Sound) Duration() time.Duration {
	return s.format.SampleRate.D(s.streamer.Len())
}

// SetVolume applies a volume in percent. Values before Play are kept and
// applied when output starts.
func (s *Sound) SetVolume(percent int, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.percent = percent
	s.muted = muted

	if s.volume == nil {
		return
	}

	level := percentToExponent(float64(percent))

	speaker.Lock()
	s.volume.Volume = level
	s.volume.Silent = muted || percent == 0
	speaker.Unlock()

	log.Debug().Msgf("Volume set to %d%% (%.2f dB, muted %v)", percent, level, muted)
}

// Format reports the container the sound was decoded from.
func (s *Sound) Format() Format {
	return s.kind
}
