package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/gdamore/tcell/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	AppName         = "tunequeue"
	AppTitle        = "TuneQueue"
	AppTagline      = "Terminal music player"
	AppDescription  = "A terminal client for streaming your music library"
	AppAuthor       = "Ilya Glebov"
	AppProjectURL   = "https://github.com/glebovdev/tunequeue"
	AppProjectShort = "github.com/glebovdev/tunequeue"

	ConfigDir      = ".config/tunequeue"
	ConfigFileName = "config.yml"
	StateFileName  = "state.yml"
	DefaultVolume  = 70
	MinVolume      = 0
	MaxVolume      = 100

	EnvAPIURL   = "TUNEQUEUE_API_URL"
	EnvAPIToken = "TUNEQUEUE_API_TOKEN"
)

// ClampVolume ensures volume is within the valid range [0, 100].
func ClampVolume(volume int) int {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/glebovdev/tunequeue/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

var dirOverride string

// SetDir makes Load and Save use dir instead of ~/.config/tunequeue.
func SetDir(dir string) {
	dirOverride = dir
}

type Theme struct {
	Background                string `yaml:"background"`
	Foreground                string `yaml:"foreground"`
	Borders                   string `yaml:"borders"`
	Highlight                 string `yaml:"highlight"`
	MutedVolume               string `yaml:"muted_volume"`
	HeaderBackground          string `yaml:"header_background"`
	TrackListHeaderBackground string `yaml:"track_list_header_background"`
	TrackListHeaderForeground string `yaml:"track_list_header_foreground"`
	HelpBackground            string `yaml:"help_background"`
	HelpForeground            string `yaml:"help_foreground"`
	HelpHotkey                string `yaml:"help_hotkey"`
	ProgressFill              string `yaml:"progress_fill"`
	ProgressEmpty             string `yaml:"progress_empty"`
	ModalBackground           string `yaml:"modal_background"`
}

type APIConfig struct {
	BaseURL    string `yaml:"base_url" default:"https://api.tunequeue.app/v1" validate:"required,url"`
	Token      string `yaml:"token,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec" default:"30" validate:"min=1,max=300"`
}

type PlaybackConfig struct {
	RestartThresholdMs int `yaml:"restart_threshold_ms" default:"3000" validate:"min=1,max=60000"`
	LoadTimeoutMs      int `yaml:"load_timeout_ms" default:"15000" validate:"min=1000,max=300000"`
	PositionPollMs     int `yaml:"position_poll_ms" default:"500" validate:"min=50,max=5000"`
}

type SyncConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms" default:"1500" validate:"min=1,max=60000"`
}

type LibraryConfig struct {
	// Zero disables periodic refresh.
	RefreshIntervalSec int `yaml:"refresh_interval_sec" default:"600" validate:"min=0,max=86400"`
}

type Config struct {
	Volume    int            `yaml:"volume"`
	Muted     bool           `yaml:"muted"`
	Shuffle   bool           `yaml:"shuffle"`
	Loop      bool           `yaml:"loop"`
	Autostart bool           `yaml:"autostart"`
	DeviceID  string         `yaml:"device_id"`
	API       APIConfig      `yaml:"api"`
	Playback  PlaybackConfig `yaml:"playback"`
	Sync      SyncConfig     `yaml:"sync"`
	Library   LibraryConfig  `yaml:"library"`
	Theme     Theme          `yaml:"theme"`
}

// GetConfigDir returns the directory holding the config and state files.
func GetConfigDir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}

	return filepath.Join(home, ConfigDir), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// GetStatePath returns the path of the playback state file.
func GetStatePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StateFileName), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ApplyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		cfg.ApplyEnv()
		return cfg, errors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
		cfg.ApplyEnv()
		return cfg, errors.Wrap(err, "failed to parse config file")
	}

	cfg.Volume = ClampVolume(cfg.Volume)
	cfg.sanitize()
	cfg.ApplyEnv()

	return cfg, nil
}

// sanitize resets every section that fails validation to its defaults.
func (c *Config) sanitize() {
	v := validator.New()

	if err := v.Struct(c.API); err != nil {
		log.Warn().Err(err).Msg("Invalid api config, using defaults")
		c.API = defaultAPI()
	}
	if err := v.Struct(c.Playback); err != nil {
		log.Warn().Err(err).Msg("Invalid playback config, using defaults")
		c.Playback = defaultPlayback()
	}
	if err := v.Struct(c.Sync); err != nil {
		log.Warn().Err(err).Msg("Invalid sync config, using defaults")
		c.Sync = defaultSync()
	}
	if err := v.Struct(c.Library); err != nil {
		log.Warn().Err(err).Msg("Invalid library config, using defaults")
		c.Library = defaultLibrary()
	}
}

// ApplyEnv overrides API settings from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		c.API.Token = v
	}
}

// EnsureDeviceID assigns a device id when none is stored and reports whether
// the config changed.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = uuid.NewString()
	return true
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	return WriteFileAtomic(configPath, data)
}

// WriteFileAtomic replaces path with data via a temp file in the same directory.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "failed to write temp file")
	}

	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to rename %s", filepath.Base(path))
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func defaultAPI() APIConfig {
	var a APIConfig
	mustSetDefaults(&a)
	return a
}

func defaultPlayback() PlaybackConfig {
	var p PlaybackConfig
	mustSetDefaults(&p)
	return p
}

func defaultSync() SyncConfig {
	s := SyncConfig{Enabled: true}
	mustSetDefaults(&s)
	return s
}

func defaultLibrary() LibraryConfig {
	var l LibraryConfig
	mustSetDefaults(&l)
	return l
}

func mustSetDefaults(ptr interface{}) {
	if err := defaults.Set(ptr); err != nil {
		panic(errors.Wrap(err, "invalid default tags"))
	}
}

func DefaultConfig() *Config {
	return &Config{
		Volume:    DefaultVolume,
		Autostart: false,
		API:       defaultAPI(),
		Playback:  defaultPlayback(),
		Sync:      defaultSync(),
		Library:   defaultLibrary(),
		Theme: Theme{
			Background:                "#1a1b25",
			Foreground:                "#a3aacb",
			Borders:                   "#40445b",
			Highlight:                 "#7ee0b5",
			MutedVolume:               "#fe0702",
			HeaderBackground:          "#2f3b45",
			TrackListHeaderBackground: "#3a3d4f",
			TrackListHeaderForeground: "#c8d0e8",
			HelpBackground:            "#322f45",
			HelpForeground:            "#9aa3c6",
			HelpHotkey:                "#7ee0b5",
			ProgressFill:              "#7ee0b5",
			ProgressEmpty:             "#40445b",
			ModalBackground:           "#282a36",
		},
	}
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

func (p PlaybackConfig) RestartThreshold() time.Duration {
	return time.Duration(p.RestartThresholdMs) * time.Millisecond
}

func (p PlaybackConfig) LoadTimeout() time.Duration {
	return time.Duration(p.LoadTimeoutMs) * time.Millisecond
}

func (p PlaybackConfig) PositionPoll() time.Duration {
	return time.Duration(p.PositionPollMs) * time.Millisecond
}

func (s SyncConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

func (l LibraryConfig) RefreshInterval() time.Duration {
	return time.Duration(l.RefreshIntervalSec) * time.Second
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
