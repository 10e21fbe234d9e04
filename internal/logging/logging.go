// Package logging configures the process-wide zerolog logger and hands out
// per-component child loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name (trace, debug, info, warn, error).
	// Default: info.
	Level string

	// Format is "console" or "json".
	// Default: console.
	Format string

	// Output receives log lines. Default: os.Stderr.
	Output io.Writer
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Init replaces the base logger. It is safe to call more than once; the
// last call wins for loggers obtained afterwards.
func Init(cfg Config) error {
	level := zerolog.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	case FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}

	logger := zerolog.New(out).With().Timestamp().Logger().Level(level)

	mu.Lock()
	base = logger
	mu.Unlock()
	return nil
}

// Logger returns the current base logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
