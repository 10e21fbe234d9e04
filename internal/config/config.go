// Package config loads tutorial runner configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (TUTORIAL_LOGGING_LEVEL, ...).
const EnvPrefix = "TUTORIAL"

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tutorial TutorialConfig `mapstructure:"tutorial"`
	TUI      TUIConfig      `mapstructure:"tui"`
}

// DatabaseConfig locates the sqlite database holding completions and events.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TutorialConfig tunes the controller and definition lookup.
type TutorialConfig struct {
	// PausePollInterval is how often a paused run re-checks for resume.
	PausePollInterval time.Duration `mapstructure:"pause_poll_interval"`

	// HeadlessDelay is how long waits take when no presentation is attached.
	HeadlessDelay time.Duration `mapstructure:"headless_delay"`

	// SequencesDir is an extra directory of YAML definitions, searched first.
	SequencesDir string `mapstructure:"sequences_dir"`

	// ProjectDir anchors the project-local .tutorial/sequences directory.
	ProjectDir string `mapstructure:"project_dir"`
}

// TUIConfig holds terminal UI preferences.
type TUIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(DefaultDataDir(), "tutorial.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tutorial: TutorialConfig{
			PausePollInterval: 16 * time.Millisecond,
			HeadlessDelay:     0,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/tutorial or ~/.config/tutorial.
func DefaultConfigDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "tutorial")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".tutorial")
	}
	return filepath.Join(home, ".config", "tutorial")
}

// DefaultDataDir returns $XDG_DATA_HOME/tutorial or ~/.local/share/tutorial.
func DefaultDataDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "tutorial")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".tutorial")
	}
	return filepath.Join(home, ".local", "share", "tutorial")
}

// Load reads configuration from path (or the default location when empty)
// and applies TUTORIAL_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := strings.TrimSpace(path) != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Tutorial.SequencesDir = expandHome(cfg.Tutorial.SequencesDir)
	cfg.Tutorial.ProjectDir = expandHome(cfg.Tutorial.ProjectDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Tutorial.PausePollInterval <= 0 {
		return fmt.Errorf("tutorial.pause_poll_interval must be greater than 0")
	}
	if c.Tutorial.HeadlessDelay < 0 {
		return fmt.Errorf("tutorial.headless_delay must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// EnsureDirs creates the directory holding the database file.
func (c *Config) EnsureDirs() error {
	if c.Database.Path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("tutorial.pause_poll_interval", cfg.Tutorial.PausePollInterval)
	v.SetDefault("tutorial.headless_delay", cfg.Tutorial.HeadlessDelay)
	v.SetDefault("tutorial.sequences_dir", cfg.Tutorial.SequencesDir)
	v.SetDefault("tutorial.project_dir", cfg.Tutorial.ProjectDir)
	v.SetDefault("tui.theme", cfg.TUI.Theme)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
