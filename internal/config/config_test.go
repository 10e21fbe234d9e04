package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 16*time.Millisecond, cfg.Tutorial.PausePollInterval)
	require.Equal(t, "default", cfg.TUI.Theme)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `database:
  path: ` + filepath.Join(dir, "t.db") + `
logging:
  level: debug
tutorial:
  pause_poll_interval: 50ms
  headless_delay: 1s
tui:
  theme: high-contrast
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TUTORIAL_LOGGING_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "t.db"), cfg.Database.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, 50*time.Millisecond, cfg.Tutorial.PausePollInterval)
	require.Equal(t, time.Second, cfg.Tutorial.HeadlessDelay)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero poll interval", func(c *Config) { c.Tutorial.PausePollInterval = 0 }, true},
		{"negative headless delay", func(c *Config) { c.Tutorial.HeadlessDelay = -time.Second }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	require.Equal(t, "/custom/config/tutorial", DefaultConfigDir())
}
