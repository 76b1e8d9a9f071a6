package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Volume != DefaultVolume {
		t.Errorf("DefaultConfig().Volume = %d, want %d", cfg.Volume, DefaultVolume)
	}
	if cfg.Autostart != false {
		t.Errorf("DefaultConfig().Autostart = %v, want false", cfg.Autostart)
	}
	if cfg.DeviceID != "" {
		t.Errorf("DefaultConfig().DeviceID = %q, want empty", cfg.DeviceID)
	}
	if cfg.API.BaseURL != "https://api.tunequeue.app/v1" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("API.Timeout() = %v, want 30s", cfg.API.Timeout())
	}
	if cfg.Playback.RestartThreshold() != 3*time.Second {
		t.Errorf("Playback.RestartThreshold() = %v, want 3s", cfg.Playback.RestartThreshold())
	}
	if cfg.Playback.LoadTimeout() != 15*time.Second {
		t.Errorf("Playback.LoadTimeout() = %v, want 15s", cfg.Playback.LoadTimeout())
	}
	if cfg.Playback.PositionPoll() != 500*time.Millisecond {
		t.Errorf("Playback.PositionPoll() = %v, want 500ms", cfg.Playback.PositionPoll())
	}
	if !cfg.Sync.Enabled || cfg.Sync.Debounce() != 1500*time.Millisecond {
		t.Errorf("Sync = %+v, want enabled with 1.5s debounce", cfg.Sync)
	}
	if cfg.Library.RefreshInterval() != 10*time.Minute {
		t.Errorf("Library.RefreshInterval() = %v, want 10m", cfg.Library.RefreshInterval())
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	testCfg := DefaultConfig()
	testCfg.Volume = 85
	testCfg.Muted = true
	testCfg.Shuffle = true
	testCfg.Loop = true
	testCfg.DeviceID = "device-1"
	testCfg.Sync.Enabled = false
	testCfg.Library.RefreshIntervalSec = 0

	if err := testCfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigDir, ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}

	loadedCfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedCfg.Volume != 85 {
		t.Errorf("Load().Volume = %d, want 85", loadedCfg.Volume)
	}
	if !loadedCfg.Muted || !loadedCfg.Shuffle || !loadedCfg.Loop {
		t.Errorf("Load() flags = muted %v shuffle %v loop %v, want all true",
			loadedCfg.Muted, loadedCfg.Shuffle, loadedCfg.Loop)
	}
	if loadedCfg.DeviceID != "device-1" {
		t.Errorf("Load().DeviceID = %q, want device-1", loadedCfg.DeviceID)
	}
	if loadedCfg.Sync.Enabled {
		t.Error("Load().Sync.Enabled = true, want false")
	}
	if loadedCfg.Library.RefreshIntervalSec != 0 {
		t.Errorf("Load().Library.RefreshIntervalSec = %d, want 0", loadedCfg.Library.RefreshIntervalSec)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := DefaultConfig().Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(tmpDir, ConfigDir, ".*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Volume != DefaultVolume {
		t.Errorf("Load().Volume = %d, want default %d", cfg.Volume, DefaultVolume)
	}
	if cfg.Theme.Background != "#1a1b25" {
		t.Errorf("Theme.Background = %q, want %q", cfg.Theme.Background, "#1a1b25")
	}
	if cfg.Theme.Highlight != "#7ee0b5" {
		t.Errorf("Theme.Highlight = %q, want %q", cfg.Theme.Highlight, "#7ee0b5")
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	writeConfigFile(t, tmpDir, "volume: 40\nplayback:\n  load_timeout_ms: 5000\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Volume != 40 {
		t.Errorf("Volume = %d, want 40", cfg.Volume)
	}
	if cfg.Playback.LoadTimeout() != 5*time.Second {
		t.Errorf("LoadTimeout() = %v, want 5s", cfg.Playback.LoadTimeout())
	}
	if cfg.Playback.RestartThreshold() != 3*time.Second {
		t.Errorf("RestartThreshold() = %v, want default 3s", cfg.Playback.RestartThreshold())
	}
	if !cfg.Sync.Enabled {
		t.Error("Sync.Enabled should default to true")
	}
}

func TestLoadClampsVolume(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"above max", "volume: 150\n", MaxVolume},
		{"below min", "volume: -20\n", MinVolume},
		{"in range", "volume: 33\n", 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Setenv("HOME", tmpDir)
			writeConfigFile(t, tmpDir, tt.yaml)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Volume != tt.want {
				t.Errorf("Volume = %d, want %d", cfg.Volume, tt.want)
			}
		})
	}
}

func TestLoadResetsInvalidSections(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	writeConfigFile(t, tmpDir, `volume: 55
api:
  base_url: "not a url"
  timeout_sec: 0
playback:
  position_poll_ms: 1
sync:
  enabled: false
  debounce_ms: 200
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Volume != 55 {
		t.Errorf("Volume = %d, want 55", cfg.Volume)
	}
	if cfg.API != defaultAPI() {
		t.Errorf("API = %+v, want defaults", cfg.API)
	}
	if cfg.Playback != defaultPlayback() {
		t.Errorf("Playback = %+v, want defaults", cfg.Playback)
	}
	if cfg.Sync.Enabled || cfg.Sync.DebounceMs != 200 {
		t.Errorf("valid Sync section should be kept, got %+v", cfg.Sync)
	}
}

func TestLoadRejectsZeroRestartThreshold(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	writeConfigFile(t, tmpDir, "playback:\n  restart_threshold_ms: 0\n  load_timeout_ms: 5000\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Playback.RestartThresholdMs != defaultPlayback().RestartThresholdMs {
		t.Errorf("RestartThresholdMs = %d, want default %d", cfg.Playback.RestartThresholdMs, defaultPlayback().RestartThresholdMs)
	}
	if cfg.Playback.LoadTimeoutMs != defaultPlayback().LoadTimeoutMs {
		t.Errorf("LoadTimeoutMs = %d, want the whole section reset to defaults", cfg.Playback.LoadTimeoutMs)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv(EnvAPIURL, "http://localhost:9000/v1")
	t.Setenv(EnvAPIToken, "env-token")

	writeConfigFile(t, tmpDir, "api:\n  base_url: https://example.com\n  token: file-token\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:9000/v1" {
		t.Errorf("API.BaseURL = %q, want env override", cfg.API.BaseURL)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want env override", cfg.API.Token)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	writeConfigFile(t, tmpDir, "this is not: valid: yaml: [")

	cfg, err := Load()
	if err == nil {
		t.Error("Load() should return an error for invalid YAML")
	}

	if cfg.Volume != DefaultVolume {
		t.Errorf("Load() with invalid YAML returned Volume = %d, want default %d", cfg.Volume, DefaultVolume)
	}
}

func TestSetDir(t *testing.T) {
	dir := t.TempDir()
	SetDir(dir)
	t.Cleanup(func() { SetDir("") })

	cfg := DefaultConfig()
	cfg.Volume = 12
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err != nil {
		t.Fatalf("config not written to override dir: %v", err)
	}

	statePath, err := GetStatePath()
	if err != nil {
		t.Fatalf("GetStatePath() error = %v", err)
	}
	if statePath != filepath.Join(dir, StateFileName) {
		t.Errorf("GetStatePath() = %q", statePath)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Volume != 12 {
		t.Errorf("Load().Volume = %d, want 12", loaded.Volume)
	}
}

func TestEnsureDeviceID(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.EnsureDeviceID() {
		t.Fatal("EnsureDeviceID() should report a change for an empty id")
	}
	if _, err := uuid.Parse(cfg.DeviceID); err != nil {
		t.Errorf("DeviceID %q is not a uuid: %v", cfg.DeviceID, err)
	}

	id := cfg.DeviceID
	if cfg.EnsureDeviceID() {
		t.Error("EnsureDeviceID() should not change an existing id")
	}
	if cfg.DeviceID != id {
		t.Errorf("DeviceID changed from %q to %q", id, cfg.DeviceID)
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 0}, {0, 0}, {50, 50}, {100, 100}, {101, 100},
	}

	for _, tt := range tests {
		if got := ClampVolume(tt.in); got != tt.want {
			t.Errorf("ClampVolume(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGetColor(t *testing.T) {
	tests := []struct {
		name     string
		colorStr string
		want     tcell.Color
	}{
		{"empty string returns default", "", tcell.ColorDefault},
		{"default keyword returns default", "default", tcell.ColorDefault},
		{"named color red", "red", tcell.ColorRed},
		{"hex color", "#FF0000", tcell.GetColor("#ff0000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetColor(tt.colorStr); got != tt.want {
				t.Errorf("GetColor(%q) = %v, want %v", tt.colorStr, got, tt.want)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if !filepath.IsAbs(path) {
		t.Errorf("GetConfigPath() = %q, want absolute path", path)
	}
	if filepath.Base(path) != ConfigFileName {
		t.Errorf("GetConfigPath() = %q, want %s file", path, ConfigFileName)
	}
}
