package playback

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/clock"
	"github.com/glebovdev/tunequeue/internal/track"
)

const (
	DefaultRestartThreshold = 3 * time.Second
	DefaultLoadTimeout      = 15 * time.Second

	eventBufferSize      = 64
	listeningFlushPeriod = 30 * time.Second
	maxVolumePercent     = 100
)

var (
	ErrUnplayable       = errors.New("track has no playable media locator")
	ErrNoPlayableTracks = errors.New("no playable tracks")
	ErrLoadTimeout      = errors.New("media load timed out")
	ErrLoadSuperseded   = errors.New("media load superseded")
)

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Store    Store
	Settings SettingsSink
	Clock    clock.Clock
	Rand     *rand.Rand

	// RestartThreshold is the elapsed time after which PlayPrevious restarts
	// the current track instead of moving back.
	RestartThreshold time.Duration
	// LoadTimeout bounds a single engine load. A timed out load counts as a
	// load failure.
	LoadTimeout time.Duration
	// SeedRandomTrack makes SetQueue pick a random current track when none is
	// selected yet.
	SeedRandomTrack bool

	Volume  int
	Muted   bool
	Shuffle bool
	Loop    bool

	// Spawn runs engine loads off the caller's goroutine. Defaults to go f().
	Spawn func(f func())
}

// Snapshot is a consistent copy of the observable session state.
type Snapshot struct {
	Queue         []track.Track
	Current       *track.Track
	Index         int
	State         State
	Playing       bool
	Position      time.Duration
	Duration      time.Duration
	Shuffle       bool
	Loop          bool
	ShuffleOrder  []string
	Volume        int
	Muted         bool
	ListeningTime time.Duration
}

type loadRequest struct {
	gen    uint64
	track  track.Track
	ctx    context.Context
	cancel context.CancelFunc
}

// Controller owns the play queue, the shuffle order and the single active
// engine session. All methods are safe for concurrent use and never block on
// media loading.
type Controller struct {
	mu sync.Mutex

	engine   Engine
	store    Store
	settings SettingsSink
	clock    clock.Clock
	rand     *rand.Rand
	spawn    func(func())

	restartThreshold time.Duration
	loadTimeout      time.Duration
	seedRandom       bool

	queue        []track.Track
	index        int
	current      *track.Track
	shuffleOrder []string
	shuffle      bool
	loop         bool

	state    State
	wantPlay bool
	position time.Duration
	duration time.Duration

	sound      Sound
	started    bool
	loadCancel context.CancelFunc
	gen        uint64
	failures   int

	volume int
	muted  bool

	listenMark    time.Time
	listenTotal   time.Duration
	listenUnsaved time.Duration

	events chan Event
	closed bool
}

// NewController creates a controller driving the given engine.
func NewController(engine Engine, opts Options) *Controller {
	c := &Controller{
		engine:           engine,
		store:            opts.Store,
		settings:         opts.Settings,
		clock:            opts.Clock,
		rand:             opts.Rand,
		spawn:            opts.Spawn,
		restartThreshold: opts.RestartThreshold,
		loadTimeout:      opts.LoadTimeout,
		seedRandom:       opts.SeedRandomTrack,
		index:            -1,
		shuffle:          opts.Shuffle,
		loop:             opts.Loop,
		volume:           clampPercent(opts.Volume),
		muted:            opts.Muted,
		events:           make(chan Event, eventBufferSize),
	}

	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.spawn == nil {
		c.spawn = func(f func()) { go f() }
	}
	if c.restartThreshold <= 0 {
		c.restartThreshold = DefaultRestartThreshold
	}
	if c.loadTimeout <= 0 {
		c.loadTimeout = DefaultLoadTimeout
	}

	return c
}

// Events returns the channel of playback events. Events are dropped when the
// consumer falls behind.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// SetQueue replaces the queue while keeping the current track selected when it
// is part of the new list.
func (c *Controller) SetQueue(tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(tracks) == 0 {
		c.clearLocked()
		c.sendEventLocked(EventQueueChanged)
		return
	}

	c.queue = append([]track.Track(nil), tracks...)

	switch {
	case c.current != nil:
		if i := track.IndexOf(c.queue, c.current.ID); i >= 0 {
			c.index = i
		} else {
			log.Debug().Msgf("Current track %s not in new queue, selecting first track", c.current.ID)
			c.stopSoundLocked()
			c.selectLocked(c.queue[0], 0)
			c.setStateLocked(StateStopped)
		}
	case c.seedRandom:
		i := c.rand.IntN(len(c.queue))
		c.selectLocked(c.queue[i], i)
		c.setStateLocked(StateStopped)
	default:
		c.index = -1
	}

	if c.shuffle {
		c.rebuildShuffleLocked()
	}

	log.Debug().Msgf("Queue set: %d tracks, index %d", len(c.queue), c.index)
	c.sendEventLocked(EventQueueChanged)
}

// PlayTrack starts a single track, or toggles play/pause when it is already
// the current track.
func (c *Controller) PlayTrack(t track.Track) {
	c.mu.Lock()

	if c.current != nil && c.current.ID == t.ID {
		req := c.toggleLocked()
		c.mu.Unlock()
		c.run(req)
		return
	}

	if !t.IsPlayable() {
		c.mu.Unlock()
		log.Warn().Err(ErrUnplayable).Msgf("Cannot play track %s", t.ID)
		return
	}

	c.failures = 0
	i := track.IndexOf(c.queue, t.ID)
	req := c.startLocked(t, i)
	if c.shuffle {
		c.shuffleOrder = removeID(c.shuffleOrder, t.ID)
	}
	c.mu.Unlock()

	c.run(req)
}

// PlayFromList replaces the queue with the playable tracks of list and starts
// the track at startIndex. When that track is not playable the next playable
// one after it is started.
func (c *Controller) PlayFromList(list []track.Track, startIndex int) {
	playable := track.FilterPlayable(list)
	if len(playable) == 0 {
		log.Warn().Err(ErrNoPlayableTracks).Msgf("Ignoring list of %d tracks", len(list))
		return
	}

	start := playableStart(list, playable, startIndex)

	c.mu.Lock()
	c.queue = playable
	c.failures = 0
	req := c.startLocked(playable[start], start)
	if c.shuffle {
		c.rebuildShuffleLocked()
	}
	c.sendEventLocked(EventQueueChanged)
	c.mu.Unlock()

	c.run(req)
}

// playableStart maps an index into list onto the filtered playable slice.
func playableStart(list, playable []track.Track, startIndex int) int {
	if startIndex < 0 {
		return 0
	}
	if startIndex >= len(list) {
		return len(playable) - 1
	}

	n := 0
	for i := 0; i < startIndex; i++ {
		if list[i].IsPlayable() {
			n++
		}
	}
	if n >= len(playable) {
		return len(playable) - 1
	}
	return n
}

// TogglePlayPause pauses or resumes the current track. A stopped track is
// loaded again from the start.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	req := c.toggleLocked()
	c.mu.Unlock()

	c.run(req)
}

func (c *Controller) toggleLocked() *loadRequest {
	if c.current == nil {
		return nil
	}

	switch c.state {
	case StatePlaying:
		c.accountListeningLocked()
		if c.sound != nil {
			c.sound.Pause()
		}
		c.wantPlay = false
		c.setStateLocked(StatePaused)
	case StatePaused:
		if c.sound != nil {
			if c.started {
				c.sound.Resume()
			} else {
				c.playSoundLocked()
			}
		}
		c.wantPlay = true
		c.setStateLocked(StatePlaying)
		c.listenMark = c.clock.Now()
	case StateLoading:
		c.wantPlay = !c.wantPlay
		c.sendEventLocked(EventStateChanged)
	default:
		return c.startLocked(*c.current, c.index)
	}
	return nil
}

// PlayNext advances to the next track, honoring shuffle and loop.
func (c *Controller) PlayNext() {
	c.mu.Lock()
	c.failures = 0
	req := c.nextLocked()
	c.mu.Unlock()

	c.run(req)
}

// PlayPrevious restarts the current track when it has been playing for longer
// than the restart threshold, otherwise moves back one track.
func (c *Controller) PlayPrevious() {
	c.mu.Lock()

	c.refreshPositionLocked()
	if c.current != nil && c.sound != nil && c.position > c.restartThreshold {
		if err := c.sound.Seek(0); err != nil {
			log.Error().Err(err).Msg("Failed to restart track")
		}
		c.position = 0
		c.mu.Unlock()
		return
	}

	c.failures = 0
	req := c.previousLocked()
	c.mu.Unlock()

	c.run(req)
}

// ToggleShuffle flips shuffle mode and rebuilds or discards the shuffle order.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	c.setShuffleLocked(!c.shuffle)
	s := c.settingsLocked()
	c.mu.Unlock()

	c.pushSettings(s)
}

// SetShuffle sets shuffle mode without pushing the change to the settings sink.
func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setShuffleLocked(on)
}

func (c *Controller) setShuffleLocked(on bool) {
	c.shuffle = on
	if on {
		c.rebuildShuffleLocked()
	} else {
		c.shuffleOrder = nil
	}
	log.Debug().Msgf("Shuffle: %v", on)
	c.sendEventLocked(EventQueueChanged)
}

// ToggleLoop flips loop mode.
func (c *Controller) ToggleLoop() {
	c.mu.Lock()
	c.loop = !c.loop
	log.Debug().Msgf("Loop: %v", c.loop)
	c.sendEventLocked(EventQueueChanged)
	s := c.settingsLocked()
	c.mu.Unlock()

	c.pushSettings(s)
}

// SetLoop sets loop mode without pushing the change to the settings sink.
func (c *Controller) SetLoop(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loop = on
}

// SeekTo moves the playback position, clamped to the track duration.
func (c *Controller) SeekTo(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return
	}

	if position < 0 {
		position = 0
	}
	if c.duration > 0 && position > c.duration {
		position = c.duration
	}

	c.position = position
	if c.sound != nil {
		if err := c.sound.Seek(position); err != nil {
			log.Error().Err(err).Msgf("Failed to seek to %s", position)
		}
	}
}

// AddToQueue appends a track unless one with the same id is already queued.
func (c *Controller) AddToQueue(t track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if track.IndexOf(c.queue, t.ID) >= 0 {
		return
	}

	c.queue = append(c.queue, t)
	if c.shuffle {
		c.shuffleOrder = insertAt(c.shuffleOrder, c.rand.IntN(len(c.shuffleOrder)+1), t.ID)
	}
	c.sendEventLocked(EventQueueChanged)
}

// RemoveFromQueue drops the track with the given id. Removing the current
// track stops playback and clears the selection.
func (c *Controller) RemoveFromQueue(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := track.IndexOf(c.queue, id)
	if i < 0 {
		return
	}

	c.queue = removeAt(c.queue, i)
	c.shuffleOrder = removeID(c.shuffleOrder, id)

	switch {
	case c.current != nil && c.current.ID == id:
		c.stopSoundLocked()
		c.current = nil
		c.index = -1
		c.position = 0
		c.duration = 0
		c.wantPlay = false
		c.setStateLocked(StateIdle)
	case c.index > i:
		c.index--
	}

	c.sendEventLocked(EventQueueChanged)
}

// MoveToNextInQueue relocates a queued track to play right after the current
// one.
func (c *Controller) MoveToNextInQueue(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := track.IndexOf(c.queue, id)
	if i < 0 {
		return
	}
	if c.current != nil && c.current.ID == id {
		return
	}

	t := c.queue[i]
	c.queue = removeAt(c.queue, i)
	if c.index > i {
		c.index--
	}
	c.queue = insertAt(c.queue, c.index+1, t)

	if c.shuffle {
		c.shuffleOrder = insertAt(removeID(c.shuffleOrder, id), 0, id)
	}

	c.sendEventLocked(EventQueueChanged)
}

// SetVolume sets the output volume in percent.
func (c *Controller) SetVolume(percent int) {
	c.mu.Lock()
	c.volume = clampPercent(percent)
	c.applyVolumeLocked()
	s := c.settingsLocked()
	c.mu.Unlock()

	c.pushSettings(s)
}

// ToggleMute mutes or unmutes output.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	c.muted = !c.muted
	c.applyVolumeLocked()
	s := c.settingsLocked()
	c.mu.Unlock()

	c.pushSettings(s)
}

// Volume returns the session volume in percent.
func (c *Controller) Volume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Muted reports whether output is muted.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Stop halts playback and keeps the current track selected.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return
	}
	c.stopLocked()
}

// Clear empties the queue and drops the current track.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	c.sendEventLocked(EventQueueChanged)
}

// Restore selects the persisted last track and loads the cumulative
// listening time. It does not start playback.
func (c *Controller) Restore() {
	if c.store == nil {
		return
	}

	total, err := c.store.ListeningTime()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read listening time")
	}

	last, err := c.store.LastTrack()
	if err != nil {
		log.Debug().Err(err).Msg("No last track restored")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.listenTotal += total
	if err != nil || c.current != nil || last.ID == "" {
		return
	}

	c.selectLocked(last, track.IndexOf(c.queue, last.ID))
	c.setStateLocked(StateStopped)
	if c.shuffle {
		c.rebuildShuffleLocked()
	}
	log.Debug().Msgf("Restored last track %s", last.ID)
}

// Tick refreshes the playback position and accrues listening time. It is
// meant to be called periodically by the UI.
func (c *Controller) Tick() {
	c.mu.Lock()
	c.refreshPositionLocked()
	if c.state == StatePlaying {
		c.accountListeningLocked()
		c.listenMark = c.clock.Now()
	}

	var unsaved time.Duration
	if c.listenUnsaved >= listeningFlushPeriod {
		unsaved = c.listenUnsaved
		c.listenUnsaved = 0
	}
	c.mu.Unlock()

	c.saveListeningTime(unsaved)
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Queue:         append([]track.Track(nil), c.queue...),
		Index:         c.index,
		State:         c.state,
		Playing:       c.isPlayingLocked(),
		Position:      c.position,
		Duration:      c.duration,
		Shuffle:       c.shuffle,
		Loop:          c.loop,
		ShuffleOrder:  append([]string(nil), c.shuffleOrder...),
		Volume:        c.volume,
		Muted:         c.muted,
		ListeningTime: c.listenTotal,
	}
	if c.current != nil {
		cur := *c.current
		s.Current = &cur
	}
	return s
}

// IsPlaying reports whether the session intends to produce output.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPlayingLocked()
}

// Close stops playback, flushes listening time and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopSoundLocked()
	c.closed = true
	unsaved := c.listenUnsaved
	c.listenUnsaved = 0
	close(c.events)
	c.mu.Unlock()

	c.saveListeningTime(unsaved)
}

func (c *Controller) isPlayingLocked() bool {
	return c.state == StatePlaying || (c.state == StateLoading && c.wantPlay)
}

// nextLocked picks the next track and returns the load to run, or nil when
// playback stopped or nothing changed.
func (c *Controller) nextLocked() *loadRequest {
	if len(c.queue) == 0 {
		return nil
	}

	if c.index < 0 {
		req := c.firstPlayableLocked(0, 1)
		if req != nil && c.shuffle {
			c.rebuildShuffleLocked()
		}
		return req
	}

	if c.shuffle {
		return c.shuffledLocked(true)
	}
	return c.sequentialLocked(1)
}

func (c *Controller) previousLocked() *loadRequest {
	if len(c.queue) == 0 {
		return nil
	}

	if c.index < 0 {
		req := c.firstPlayableLocked(len(c.queue)-1, -1)
		if req != nil && c.shuffle {
			c.rebuildShuffleLocked()
		}
		return req
	}

	if c.shuffle {
		return c.shuffledLocked(false)
	}
	return c.sequentialLocked(-1)
}

// firstPlayableLocked scans the queue from start in direction dir without
// wrapping.
func (c *Controller) firstPlayableLocked(start, dir int) *loadRequest {
	for i := start; i >= 0 && i < len(c.queue); i += dir {
		if c.queue[i].IsPlayable() {
			return c.startLocked(c.queue[i], i)
		}
	}
	c.stopLocked()
	return nil
}

// sequentialLocked steps through the queue in direction dir, wrapping when
// loop is on and skipping tracks without a playable locator.
func (c *Controller) sequentialLocked(dir int) *loadRequest {
	n := len(c.queue)
	for step := 1; step <= n; step++ {
		i := c.index + dir*step
		if i < 0 || i >= n {
			if !c.loop {
				break
			}
			i = ((i % n) + n) % n
		}
		if c.queue[i].IsPlayable() {
			return c.startLocked(c.queue[i], i)
		}
	}

	c.stopLocked()
	return nil
}

// shuffledLocked consumes the shuffle order from the front (forward) or the
// back (backward). An exhausted order is rebuilt once when loop is on.
func (c *Controller) shuffledLocked(forward bool) *loadRequest {
	rebuilt := false
	for {
		if len(c.shuffleOrder) == 0 {
			if !c.loop || rebuilt {
				break
			}
			c.rebuildShuffleLocked()
			rebuilt = true
			continue
		}

		var id string
		if forward {
			id = c.shuffleOrder[0]
			c.shuffleOrder = c.shuffleOrder[1:]
		} else {
			last := len(c.shuffleOrder) - 1
			id = c.shuffleOrder[last]
			c.shuffleOrder = c.shuffleOrder[:last]
		}

		i := track.IndexOf(c.queue, id)
		if i >= 0 && c.queue[i].IsPlayable() {
			return c.startLocked(c.queue[i], i)
		}
	}

	// With loop on, a queue whose only playable entry is the current track
	// repeats it.
	if c.loop && c.current != nil && c.current.IsPlayable() && c.index >= 0 {
		return c.startLocked(*c.current, c.index)
	}

	c.stopLocked()
	return nil
}

func (c *Controller) rebuildShuffleLocked() {
	exclude := ""
	if c.current != nil {
		exclude = c.current.ID
	}
	c.shuffleOrder = buildShuffleOrder(c.rand, c.queue, exclude)
}

func (c *Controller) selectLocked(t track.Track, index int) {
	c.current = &t
	c.index = index
	c.position = 0
	c.duration = t.DurationValue()
}

// startLocked tears down the active session, selects t and prepares the load
// for it. The caller must pass the result to run after unlocking.
func (c *Controller) startLocked(t track.Track, index int) *loadRequest {
	c.stopSoundLocked()
	c.selectLocked(t, index)
	c.wantPlay = true

	ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
	c.loadCancel = cancel
	c.setStateLocked(StateLoading)

	log.Debug().Msgf("Loading track %s (%s)", t.ID, t.AudioURL)
	return &loadRequest{gen: c.gen, track: t, ctx: ctx, cancel: cancel}
}

// stopLocked ends playback, keeps the current track and resets the position.
func (c *Controller) stopLocked() {
	c.stopSoundLocked()
	c.wantPlay = false
	c.position = 0
	c.setStateLocked(StateStopped)
	c.sendEventLocked(EventPlaybackStopped)
	log.Debug().Msg("Playback stopped")
}

func (c *Controller) clearLocked() {
	c.stopSoundLocked()
	c.queue = nil
	c.shuffleOrder = nil
	c.current = nil
	c.index = -1
	c.position = 0
	c.duration = 0
	c.wantPlay = false
	c.failures = 0
	c.setStateLocked(StateIdle)
}

// stopSoundLocked cancels any pending load and releases the active sound.
// Completions and loads issued before the call become stale.
func (c *Controller) stopSoundLocked() {
	c.accountListeningLocked()
	c.gen++

	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
	if c.sound != nil {
		c.sound.Stop()
		c.sound.Release()
		c.sound = nil
	}
	c.started = false
}

func (c *Controller) playSoundLocked() {
	gen := c.gen
	c.sound.Play(func() { c.onComplete(gen) })
	c.started = true
}

func (c *Controller) run(req *loadRequest) {
	if req == nil {
		return
	}
	c.spawn(func() { c.load(req) })
}

func (c *Controller) load(req *loadRequest) {
	sound, err := c.engine.Load(req.ctx, req.track.AudioURL)
	if err != nil && errors.Is(req.ctx.Err(), context.DeadlineExceeded) {
		err = errors.Wrapf(ErrLoadTimeout, "after %s: %v", c.loadTimeout, err)
	}
	req.cancel()

	c.mu.Lock()
	if req.gen != c.gen || c.closed {
		c.mu.Unlock()
		if sound != nil {
			sound.Release()
		}
		log.Debug().Err(ErrLoadSuperseded).Msgf("Discarding load of %s", req.track.ID)
		return
	}
	c.loadCancel = nil

	if err != nil {
		next := c.loadFailedLocked(req.track, err)
		c.mu.Unlock()
		c.run(next)
		return
	}

	c.failures = 0
	c.sound = sound
	sound.SetVolume(c.volume, c.muted)
	if d := sound.Duration(); d > 0 {
		c.duration = d
	}
	// A seek made while loading is only recorded in c.position.
	if c.position > 0 {
		if err := sound.Seek(c.position); err != nil {
			log.Warn().Err(err).Msgf("Failed to restore position for %s", req.track.ID)
		}
	}

	if c.wantPlay {
		c.playSoundLocked()
		c.listenMark = c.clock.Now()
		c.setStateLocked(StatePlaying)
	} else {
		c.setStateLocked(StatePaused)
	}
	c.sendEventLocked(EventTrackStarted)
	c.mu.Unlock()

	log.Info().Msgf("Playing %s", req.track.DisplayName())
	c.saveLastTrack(req.track)
}

// loadFailedLocked advances past a track the engine could not load. The
// number of consecutive failures is bounded by the queue length so a queue
// of broken tracks cannot cycle forever with loop on.
func (c *Controller) loadFailedLocked(t track.Track, err error) *loadRequest {
	log.Error().Err(err).Msgf("Failed to load track %s", t.ID)

	c.failures++
	c.sendEventLocked(EventLoadFailed)

	if c.failures >= len(c.queue) {
		log.Warn().Msgf("Giving up after %d consecutive load failures", c.failures)
		c.failures = 0
		c.stopLocked()
		return nil
	}

	if c.index < 0 {
		// Direct plays of tracks outside the queue have nothing to advance to.
		c.stopLocked()
		return nil
	}

	return c.nextLocked()
}

func (c *Controller) onComplete(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		return
	}

	c.accountListeningLocked()
	if c.duration > 0 {
		c.position = c.duration
	}
	c.sendEventLocked(EventTrackEnded)
	req := c.nextLocked()
	c.mu.Unlock()

	c.run(req)
}

func (c *Controller) refreshPositionLocked() {
	if c.sound != nil && c.started {
		c.position = c.sound.Position()
	}
}

func (c *Controller) accountListeningLocked() {
	if c.state != StatePlaying || c.listenMark.IsZero() {
		return
	}
	if d := c.clock.Now().Sub(c.listenMark); d > 0 {
		c.listenTotal += d
		c.listenUnsaved += d
	}
	c.listenMark = time.Time{}
}

func (c *Controller) applyVolumeLocked() {
	if c.sound != nil {
		c.sound.SetVolume(c.volume, c.muted)
	}
}

func (c *Controller) settingsLocked() Settings {
	return Settings{Shuffle: c.shuffle, Loop: c.loop, Volume: c.volume, Muted: c.muted}
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.sendEventLocked(EventStateChanged)
}

func (c *Controller) sendEventLocked(t EventType) {
	if c.closed {
		return
	}

	ev := Event{Type: t, State: c.state}
	if c.current != nil {
		cur := *c.current
		ev.Track = &cur
	}

	select {
	case c.events <- ev:
	default:
		log.Debug().Msgf("Event channel full, dropping %s", t)
	}
}

func (c *Controller) pushSettings(s Settings) {
	if c.settings != nil {
		c.settings.Push(s)
	}
}

func (c *Controller) saveLastTrack(t track.Track) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveLastTrack(t); err != nil {
		log.Warn().Err(err).Msg("Failed to save last track")
	}
}

func (c *Controller) saveListeningTime(d time.Duration) {
	if c.store == nil || d <= 0 {
		return
	}
	if err := c.store.AddListeningTime(d); err != nil {
		log.Warn().Err(err).Msg("Failed to save listening time")
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxVolumePercent {
		return maxVolumePercent
	}
	return v
}
