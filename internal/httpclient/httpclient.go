// Package httpclient builds the resty clients shared by the API, artwork and
// media fetchers.
package httpclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/config"
)

// New returns a client with the application User-Agent whose internal
// diagnostics go to the application log instead of stderr. Retries are left
// disabled.
func New(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetLogger(Logger{}).
		SetHeader("User-Agent", UserAgent())
}

func UserAgent() string {
	return fmt.Sprintf("%s/%s", config.AppName, config.AppVersion)
}

// Logger adapts resty's logger to zerolog. Resty reports every failed
// attempt as an error, which the callers already surface, so its messages
// are kept at debug level.
type Logger struct{}

func (Logger) Errorf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msg(message(format, v))
}

func (Logger) Warnf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msg(message(format, v))
}

func (Logger) Debugf(format string, v ...interface{}) {
	log.Trace().Str("component", "resty").Msg(message(format, v))
}

func message(format string, v []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
