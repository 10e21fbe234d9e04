// Package cli provides the command that plays a tutorial.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opencode-ai/tutorial/internal/console"
	"github.com/opencode-ai/tutorial/internal/db"
	"github.com/opencode-ai/tutorial/internal/events"
	"github.com/opencode-ai/tutorial/internal/logging"
	"github.com/opencode-ai/tutorial/internal/sequences"
	"github.com/opencode-ai/tutorial/internal/tui"
	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

var (
	runFrom     int
	runVars     []string
	runHeadless bool
	runConsole  bool
	runTargets  []string

	// Line-mode streams, swapped out in tests.
	consoleIn  io.Reader = os.Stdin
	consoleOut io.Writer = os.Stdout
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runFrom, "from", 0, "start at this step index (earlier steps are fast-forwarded)")
	runCmd.Flags().StringSliceVar(&runVars, "var", nil, "template variable key=value (repeatable)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without a presentation; waits resolve on their own")
	runCmd.Flags().BoolVar(&runConsole, "console", false, "use line-mode output even on a terminal")
	runCmd.Flags().StringSliceVar(&runTargets, "target", nil, "clickable target offered in the terminal UI (repeatable)")
}

var runCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Play a tutorial",
	Long: `Play a tutorial. On a terminal the full-screen UI is used; otherwise
commands are read line by line from stdin (type help for the list).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFrom < 0 {
			return fmt.Errorf("--from must not be negative")
		}
		vars, err := parseSequenceVars(runVars)
		if err != nil {
			return err
		}

		def, err := findDefinition(args[0])
		if err != nil {
			return err
		}
		seq, err := sequences.Build(def, vars)
		if err != nil {
			return &PreflightError{
				Message:  fmt.Sprintf("cannot build tutorial %q: %v", def.ID, err),
				Hint:     "Pass the missing variables with --var key=value",
				NextStep: fmt.Sprintf("tutorial show %s", def.ID),
				Err:      err,
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runSequence(ctx, seq, vars)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, result)
		}
		fmt.Printf("%s %s\n", formatOutcome(result.Outcome), result.SequenceID)
		return nil
	},
}

type runResult struct {
	SequenceID     string           `json:"sequence_id"`
	Outcome        tutorial.Outcome `json:"outcome"`
	RecordFailures int              `json:"record_failures,omitempty"`
}

type presentationMode int

const (
	modeHeadless presentationMode = iota
	modeConsole
	modeTUI
)

func choosePresentationMode() presentationMode {
	switch {
	case runHeadless:
		return modeHeadless
	case runConsole || IsNonInteractive():
		return modeConsole
	default:
		return modeTUI
	}
}

func selectedTheme() styles.Theme {
	name := currentConfig().TUI.Theme
	theme, ok := styles.ThemeByName(name)
	if !ok {
		logger := logging.Component("cli")
		logger.Warn().Str("theme", name).Msg("unknown theme, using default")
		return styles.DefaultTheme
	}
	return theme
}

// runSequence plays seq against the chosen presentation, recording events and
// completions in the database.
func runSequence(ctx context.Context, seq *tutorial.Sequence, vars map[string]string) (*runResult, error) {
	logger := logging.Component("cli")
	cfg := currentConfig()

	database, err := openDatabase()
	if err != nil {
		return nil, err
	}
	defer database.Close()

	completions := db.NewCompletionRepository(database)
	recorder := events.NewRecorder(db.NewEventRepository(database), completions)

	mode := choosePresentationMode()
	theme := selectedTheme()

	var (
		view      tutorial.Presentation
		consoleUI *console.Presentation
		terminal  *tui.Presentation
	)
	switch mode {
	case modeConsole:
		consoleUI = console.New(consoleOut, theme)
		view = consoleUI
	case modeTUI:
		terminal = tui.New(tui.Options{Theme: theme, Targets: runTargets, AltScreen: true})
		view = terminal
	}

	ctrl := tutorial.NewController(tutorial.NewModel(), view,
		tutorial.WithPausePollInterval(cfg.Tutorial.PausePollInterval),
		tutorial.WithHeadlessDelay(cfg.Tutorial.HeadlessDelay),
	)
	defer ctrl.Close()

	if terminal != nil {
		terminal.SetControls(ctrl)
	}

	progress := startProgress("Loading tutorials")
	if err := registerDefinitions(ctx, ctrl, completions); err != nil {
		progress.Fail(err)
		return nil, err
	}
	progress.Done(fmt.Sprintf("%d available", len(ctrl.Sequences())))
	ctrl.RegisterSequence(seq)

	if err := recorder.Attach(ctrl); err != nil {
		return nil, fmt.Errorf("failed to attach recorder: %w", err)
	}
	defer recorder.Detach(ctrl)

	switch {
	case consoleUI != nil:
		if err := ctrl.Subscribe("console", consoleUI); err != nil {
			return nil, err
		}
	case terminal != nil:
		if err := ctrl.Subscribe("tui", terminal); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("sequence_id", seq.ID()).
		Int("from", runFrom).
		Strs("vars", sortedKeys(vars)).
		Msg("running tutorial")

	result := &runResult{SequenceID: seq.ID()}

	g, gctx := errgroup.WithContext(ctx)
	inputCtx, stopInput := context.WithCancel(gctx)
	defer stopInput()

	g.Go(func() error {
		defer stopInput()
		if terminal != nil {
			defer terminal.Quit()
		}
		outcome, err := ctrl.Start(gctx, seq, runFrom)
		result.Outcome = outcome
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	switch {
	case consoleUI != nil:
		g.Go(func() error {
			return consoleUI.Drive(inputCtx, consoleIn, ctrl)
		})
	case terminal != nil:
		g.Go(terminal.Run)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.RecordFailures = recorder.Failures()
	if result.RecordFailures > 0 {
		logger.Warn().Int("failures", result.RecordFailures).Msg("some tutorial events were not recorded")
	}
	return result, nil
}
