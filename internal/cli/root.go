// Package cli implements the tutorial command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tutorial/internal/config"
	"github.com/opencode-ai/tutorial/internal/db"
	"github.com/opencode-ai/tutorial/internal/logging"
)

var (
	cfgFile        string
	dbPath         string
	logLevel       string
	jsonOutput     bool
	jsonlOutput    bool
	nonInteractive bool
	noProgress     bool
	noColor        bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tutorial",
	Short: "Run guided tutorials in the terminal",
	Long: `tutorial walks users through guided sequences of messages, highlighted
targets and pointers, and remembers which sequences they have finished.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/.config/tutorial/config.yaml)")
	flags.StringVar(&dbPath, "db", "", "database path (overrides database.path)")
	flags.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt or open the terminal UI")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return &PreflightError{
			Message:  err.Error(),
			Hint:     "Check the config file syntax and TUTORIAL_* environment variables",
			NextStep: "tutorial --config <path> list",
		}
	}

	if strings.TrimSpace(dbPath) != "" {
		cfg.Database.Path = dbPath
	}
	if strings.TrimSpace(logLevel) != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	appConfig = cfg
	return nil
}

// GetConfig returns the loaded configuration, or nil before initialization.
func GetConfig() *config.Config {
	return appConfig
}

func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return config.DefaultConfig()
}

// openDatabase opens the configured database and applies pending migrations.
func openDatabase() (*db.DB, error) {
	cfg := currentConfig()
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, &PreflightError{
			Message:  fmt.Sprintf("cannot open database: %v", err),
			Hint:     "Check that the database directory is writable",
			NextStep: "tutorial --db <path> list",
		}
	}

	applied, err := database.MigrateUp(context.Background())
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if applied > 0 {
		logger := logging.Component("cli")
		logger.Debug().Int("applied", applied).Msg("database migrated")
	}
	return database, nil
}

// PreflightError is a user-facing failure with a suggested fix.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
	Err      error
}

func (e *PreflightError) Error() string {
	return e.Message
}

func (e *PreflightError) Unwrap() error {
	return e.Err
}

func printError(out *os.File, err error) {
	if IsJSONOutput() || IsJSONLOutput() {
		payload := map[string]string{"error": err.Error()}
		var preflight *PreflightError
		if errors.As(err, &preflight) {
			payload["hint"] = preflight.Hint
			payload["next_step"] = preflight.NextStep
		}
		_ = WriteOutput(out, payload)
		return
	}

	fmt.Fprintf(out, "%s %v\n", colorize("Error:", colorRed), err)
	var preflight *PreflightError
	if errors.As(err, &preflight) {
		if preflight.Hint != "" {
			fmt.Fprintf(out, "Hint: %s\n", preflight.Hint)
		}
		if preflight.NextStep != "" {
			fmt.Fprintf(out, "Try: %s\n", preflight.NextStep)
		}
	}
}
