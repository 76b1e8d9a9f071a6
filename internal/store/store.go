// Package store persists playback state between sessions in a YAML file next to the config.
package store

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/glebovdev/tunequeue/internal/config"
	"github.com/glebovdev/tunequeue/internal/track"
)

var ErrNoLastTrack = errors.New("no last track recorded")

type state struct {
	LastTrack       *track.Track `yaml:"last_track,omitempty"`
	ListeningTimeMs int64        `yaml:"listening_time_ms"`
	UpdatedAt       time.Time    `yaml:"updated_at,omitempty"`
}

// FileStore is a last-write-wins state file. Every write replaces the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open returns a FileStore at the default state path.
func Open() (*FileStore, error) {
	path, err := config.GetStatePath()
	if err != nil {
		return nil, err
	}
	return New(path), nil
}

// New returns a FileStore backed by path. The file is created on first write.
func New(path string) *FileStore {
	return &FileStore{
		path: path,
		now:  time.Now,
	}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) SaveLastTrack(t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readForUpdate()
	st.LastTrack = &t
	return s.write(st)
}

func (s *FileStore) LastTrack() (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return track.Track{}, err
	}
	if st.LastTrack == nil || st.LastTrack.ID == "" {
		return track.Track{}, errors.WithStack(ErrNoLastTrack)
	}
	return *st.LastTrack, nil
}

// AddListeningTime adds d to the stored total. Non-positive durations are ignored.
func (s *FileStore) AddListeningTime(d time.Duration) error {
	if d <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readForUpdate()
	st.ListeningTimeMs += d.Milliseconds()
	return s.write(st)
}

func (s *FileStore) ListeningTime() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read()
	if err != nil {
		return 0, err
	}
	return time.Duration(st.ListeningTimeMs) * time.Millisecond, nil
}

func (s *FileStore) read() (*state, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &state{}, nil
		}
		return nil, errors.Wrap(err, "failed to read state file")
	}

	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, "failed to parse state file")
	}
	return &st, nil
}

// readForUpdate starts from an empty state when the file cannot be read.
func (s *FileStore) readForUpdate() *state {
	st, err := s.read()
	if err != nil {
		log.Warn().Err(err).Str("file", s.path).Msg("Discarding unreadable state file")
		return &state{}
	}
	return st
}

func (s *FileStore) write(st *state) error {
	st.UpdatedAt = s.now().UTC()

	data, err := yaml.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}

	return config.WriteFileAtomic(s.path, data)
}
