package playback

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/glebovdev/tunequeue/internal/clock"
	"github.com/glebovdev/tunequeue/internal/track"
)

type fakeEngine struct {
	mu      sync.Mutex
	loads   []string
	failing map[string]error
	hanging map[string]bool
	sounds  []*fakeSound
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		failing: make(map[string]error),
		hanging: make(map[string]bool),
	}
}

func (e *fakeEngine) Load(ctx context.Context, locator string) (Sound, error) {
	e.mu.Lock()
	e.loads = append(e.loads, locator)
	err := e.failing[locator]
	hang := e.hanging[locator]
	e.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	s := &fakeSound{locator: locator, duration: 3 * time.Minute}
	e.mu.Lock()
	e.sounds = append(e.sounds, s)
	e.mu.Unlock()
	return s, nil
}

func (e *fakeEngine) fail(locator string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failing[locator] = errors.New("decode failed")
}

// hang makes loads of locator block until their context ends.
func (e *fakeEngine) hang(locator string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hanging[locator] = true
}

func (e *fakeEngine) loadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.loads)
}

func (e *fakeEngine) lastSound() *fakeSound {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sounds) == 0 {
		return nil
	}
	return e.sounds[len(e.sounds)-1]
}

func (e *fakeEngine) allSounds() []*fakeSound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*fakeSound(nil), e.sounds...)
}

// active counts sounds that were handed out and not yet released.
func (e *fakeEngine) active() int {
	n := 0
	for _, s := range e.allSounds() {
		if !s.isReleased() {
			n++
		}
	}
	return n
}

type fakeSound struct {
	mu         sync.Mutex
	locator    string
	duration   time.Duration
	position   time.Duration
	playing    bool
	stopped    bool
	released   bool
	onComplete func()
	seeks      []time.Duration
	volume     int
	muted      bool
}

func (s *fakeSound) Play(onComplete func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	s.onComplete = onComplete
}

func (s *fakeSound) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

func (s *fakeSound) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

func (s *fakeSound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.stopped = true
}

func (s *fakeSound) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

func (s *fakeSound) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
	s.seeks = append(s.seeks, position)
	return nil
}

func (s *fakeSound) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *fakeSound) Duration() time.Duration {
	return s.duration
}

func (s *fakeSound) SetVolume(percent int, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = percent
	s.muted = muted
}

func (s *fakeSound) setPosition(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = d
}

func (s *fakeSound) isPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeSound) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// complete simulates the engine reaching the end of the media.
func (s *fakeSound) complete() {
	s.mu.Lock()
	cb := s.onComplete
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type fakeStore struct {
	mu        sync.Mutex
	last      *track.Track
	listening time.Duration
	saveErr   error
}

func (s *fakeStore) SaveLastTrack(t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.last = &t
	return nil
}

func (s *fakeStore) LastTrack() (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return track.Track{}, errors.New("no last track")
	}
	return *s.last, nil
}

func (s *fakeStore) AddListeningTime(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.listening += d
	return nil
}

func (s *fakeStore) ListeningTime() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening, nil
}

type recordingSink struct {
	mu     sync.Mutex
	pushed []Settings
}

func (r *recordingSink) Push(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, s)
}

type harness struct {
	ctrl   *Controller
	engine *fakeEngine
	store  *fakeStore
	sink   *recordingSink
	clock  *clock.Manual
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()

	h := &harness{
		engine: newFakeEngine(),
		store:  &fakeStore{},
		sink:   &recordingSink{},
		clock:  clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
	}

	opts := Options{
		Store:    h.store,
		Settings: h.sink,
		Clock:    h.clock,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		Volume:   80,
		Spawn:    func(f func()) { f() },
	}
	for _, fn := range configure {
		fn(&opts)
	}

	h.ctrl = NewController(h.engine, opts)
	t.Cleanup(h.ctrl.Close)
	return h
}

func song(id string) track.Track {
	return track.Track{
		ID:       id,
		Title:    "Song " + id,
		Artist:   "Artist",
		AudioURL: "https://cdn.example.com/" + id + ".mp3",
		Duration: 180,
	}
}

func unplayable(id string) track.Track {
	return track.Track{ID: id, Title: "Song " + id, Artist: "Artist"}
}

func songs(ids ...string) []track.Track {
	result := make([]track.Track, len(ids))
	for i, id := range ids {
		result[i] = song(id)
	}
	return result
}

// deferredSpawn collects load jobs so tests decide when loads complete.
type deferredSpawn struct {
	jobs []func()
}

func (d *deferredSpawn) spawn(f func()) {
	d.jobs = append(d.jobs, f)
}

func (d *deferredSpawn) run(i int) {
	d.jobs[i]()
}

func drainEvents(c *Controller) []EventType {
	var out []EventType
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return out
			}
			out = append(out, ev.Type)
		default:
			return out
		}
	}
}

func currentID(s Snapshot) string {
	if s.Current == nil {
		return ""
	}
	return s.Current.ID
}
