// Package cli provides commands that edit stored completions.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tutorial/internal/db"
	"github.com/opencode-ai/tutorial/internal/events"
	"github.com/opencode-ai/tutorial/internal/models"
)

var resetAll bool

func init() {
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(markCmd)

	resetCmd.Flags().BoolVar(&resetAll, "all", false, "forget every completed tutorial")
}

var resetCmd = &cobra.Command{
	Use:   "reset [id...]",
	Short: "Forget that tutorials were completed",
	Long:  "Remove stored completions so the tutorials run again. Use --all to clear everything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetAll == (len(args) > 0) {
			return &PreflightError{
				Message:  "give tutorial ids or --all, not both",
				NextStep: "tutorial reset --all",
			}
		}
		ctx := cmd.Context()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		repo := db.NewCompletionRepository(database)
		eventRepo := db.NewEventRepository(database)

		var reset []string
		if resetAll {
			ids, err := repo.ListIDs(ctx)
			if err != nil {
				return err
			}
			if _, err := repo.DeleteAll(ctx); err != nil {
				return err
			}
			reset = ids
		} else {
			for _, arg := range args {
				id, err := normalizeSequenceID(arg)
				if err != nil {
					return err
				}
				err = repo.Delete(ctx, id)
				if errors.Is(err, db.ErrCompletionNotFound) {
					fmt.Fprintf(os.Stderr, "%s was not completed\n", id)
					continue
				}
				if err != nil {
					return err
				}
				reset = append(reset, id)
			}
		}

		if len(reset) > 0 || resetAll {
			if err := events.LogCompletionReset(ctx, eventRepo, reset, resetAll); err != nil {
				return fmt.Errorf("failed to record reset: %w", err)
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"reset": reset, "all": resetAll})
		}
		fmt.Printf("Reset %d tutorial(s)\n", len(reset))
		return nil
	},
}

var markCmd = &cobra.Command{
	Use:   "mark <id>",
	Short: "Mark a tutorial as completed without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := findDefinition(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		completion := &models.Completion{
			SequenceID:  def.ID,
			Source:      models.CompletionSourceImport,
			CompletedAt: time.Now().UTC(),
		}
		if err := markCompleted(ctx, database, completion); err != nil {
			return err
		}
		stored, err := db.NewCompletionRepository(database).Get(ctx, def.ID)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, stored)
		}
		fmt.Printf("%s %s\n", formatCompletion(stored), def.ID)
		return nil
	},
}

// markCompleted stores completion and its completion.marked event in one
// transaction.
func markCompleted(ctx context.Context, database *db.DB, completion *models.Completion) error {
	event, err := events.CompletionMarked(completion.SequenceID, completion.Source)
	if err != nil {
		return err
	}

	completions := db.NewCompletionRepository(database)
	eventLog := db.NewEventRepository(database)
	return database.Transaction(ctx, func(tx *sql.Tx) error {
		if err := completions.MarkCompletedWithTx(ctx, tx, completion); err != nil {
			return err
		}
		return eventLog.CreateWithTx(ctx, tx, event)
	})
}
