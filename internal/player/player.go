// Package player implements the audio engine on top of beep.
package player

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/httpclient"
	"github.com/glebovdev/tunequeue/internal/playback"
)

const (
	DefaultSampleRate   = beep.SampleRate(44100)
	SpeakerBufferSize   = time.Millisecond * 250
	ResampleQuality     = 4
	FetchTimeout        = 60 * time.Second
	MaxMediaBytes       = 256 << 20
	VolumeCurveExponent = 0.5
	MinVolumeDB         = -10.0
)

var (
	ErrEmptyLocator      = errors.New("empty media locator")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")
	ErrMediaTooLarge     = errors.New("media exceeds size limit")
)

type httpStatusError struct {
	StatusCode int
	Status     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("media returned status %d: %s", e.StatusCode, e.Status)
}

// Engine loads tracks into memory, decodes them and plays them through the
// shared speaker.
type Engine struct {
	client *resty.Client

	mu          sync.Mutex
	sampleRate  beep.SampleRate
	speakerInit bool
	initOutput  func(sr beep.SampleRate) error
}

// NewEngine creates an engine that fetches remote media with its own HTTP client.
func NewEngine() *Engine {
	return &Engine{
		client:     httpclient.New(FetchTimeout),
		sampleRate: DefaultSampleRate,
		initOutput: func(sr beep.SampleRate) error {
			return speaker.Init(sr, sr.N(SpeakerBufferSize))
		},
	}
}

// Load fetches the media behind locator and prepares it for playback.
func (e *Engine) Load(ctx context.Context, locator string) (playback.Sound, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, ErrEmptyLocator
	}

	data, hint, err := e.fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := detectFormat(data, hint)
	streamer, format, err := decode(f, data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", locator)
	}

	if err := e.initSpeaker(); err != nil {
		_ = streamer.Close()
		return nil, err
	}

	log.Debug().Msgf("Loaded %s: %s, %d Hz, %d ch, %s",
		locator, f, format.SampleRate, format.NumChannels, format.SampleRate.D(streamer.Len()).Round(time.Second))

	return newSound(streamer, format, e.sampleRate, f), nil
}

func (e *Engine) initSpeaker() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.speakerInit {
		return nil
	}
	if err := e.initOutput(e.sampleRate); err != nil {
		return errors.Wrap(err, "failed to initialize speaker")
	}
	e.speakerInit = true
	log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", e.sampleRate, SpeakerBufferSize)
	return nil
}

// fetch returns the raw media bytes and a name hint used for format detection.
func (e *Engine) fetch(ctx context.Context, locator string) ([]byte, string, error) {
	if filepath.IsAbs(locator) {
		return readFile(locator)
	}

	u, err := url.Parse(locator)
	if err != nil {
		return nil, "", errors.Wrapf(err, "parse locator %q", locator)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return e.fetchRemote(ctx, locator, u)
	case "file":
		return readFile(u.Path)
	default:
		return nil, "", errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
}

func (e *Engine) fetchRemote(ctx context.Context, locator string, u *url.URL) ([]byte, string, error) {
	log.Debug().Msgf("Fetching media: %s", locator)

	resp, err := e.client.R().SetContext(ctx).Get(locator)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to fetch media")
	}

	if !resp.IsSuccess() {
		return nil, "", &httpStatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	body := resp.Body()
	if len(body) > MaxMediaBytes {
		return nil, "", errors.Wrapf(ErrMediaTooLarge, "%d bytes", len(body))
	}

	hint := u.Path
	if ct := resp.Header().Get("Content-Type"); ct != "" {
		hint = hint + " " + ct
	}
	return body, hint, nil
}

func readFile(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to open media file")
	}
	if info.Size() > MaxMediaBytes {
		return nil, "", errors.Wrapf(ErrMediaTooLarge, "%d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read media file")
	}
	return data, path, nil
}

// memFile lets decoders seek within fetched media.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error {
	return nil
}

func newMemFile(data []byte) memFile {
	return memFile{Reader: bytes.NewReader(data)}
}

func percentToExponent(p float64) float64 {
	if p <= 0 {
		return MinVolumeDB
	}
	if p >= 100 {
		return 0
	}

	normalized := p / 100.0
	adjusted := math.Pow(normalized, VolumeCurveExponent)
	return (1.0 - adjusted) * MinVolumeDB
}
