package player

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// Format identifies a supported container.
type Format string

const (
	FormatUnknown Format = ""
	FormatMP3     Format = "MP3"
	FormatWAV     Format = "WAV"
)

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// detectFormat sniffs the leading bytes and falls back to the name or
// content-type hint.
func detectFormat(data []byte, hint string) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}

	hint = strings.ToLower(hint)
	switch {
	case strings.Contains(hint, ".mp3"), strings.Contains(hint, "audio/mpeg"):
		return FormatMP3
	case strings.Contains(hint, ".wav"), strings.Contains(hint, "audio/wav"), strings.Contains(hint, "audio/x-wav"):
		return FormatWAV
	}
	return FormatUnknown
}

func decode(f Format, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	switch f {
	case FormatMP3:
		return mp3.Decode(newMemFile(data))
	case FormatWAV:
		return wav.Decode(newMemFile(data))
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}
