// Package cli provides the event log command.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tutorial/internal/db"
	"github.com/opencode-ai/tutorial/internal/models"
	"github.com/opencode-ai/tutorial/internal/tui/components"
	"github.com/opencode-ai/tutorial/internal/tui/styles"
)

const defaultEventLimit = 50

var (
	eventsSequence string
	eventsType     string
	eventsSince    time.Duration
	eventsLimit    int
	eventsAfter    string
)

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsSequence, "sequence", "", "only events for this tutorial")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "only events of this type (e.g. tutorial.completed)")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this (e.g. 24h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", defaultEventLimit, "maximum number of events")
	eventsCmd.Flags().StringVar(&eventsAfter, "after", "", "continue after this event id")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the tutorial event log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than 0")
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		repo := db.NewEventRepository(database)
		query := buildEventQuery()
		page, err := repo.Query(cmd.Context(), query)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, page.Events)
		}

		if len(page.Events) == 0 {
			fmt.Println(components.EmptyEvents(eventsSequence).RenderCompact(styles.DefaultStyles()))
			return nil
		}

		rows := make([][]string, 0, len(page.Events))
		for _, e := range page.Events {
			rows = append(rows, []string{
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				formatEventType(e.Type),
				e.EntityID,
				truncate(string(e.Payload), 60),
			})
		}
		if err := writeTable(os.Stdout, []string{"TIME", "TYPE", "ENTITY", "PAYLOAD"}, rows); err != nil {
			return err
		}
		if page.NextCursor != "" {
			total, err := repo.Count(cmd.Context(), query)
			if err != nil {
				return err
			}
			fmt.Printf("%d matching events. More: tutorial events --after %s\n", total, page.NextCursor)
		}
		return nil
	},
}

func buildEventQuery() db.EventQuery {
	q := db.EventQuery{Limit: eventsLimit, Cursor: strings.TrimSpace(eventsAfter)}
	if id := strings.TrimSpace(eventsSequence); id != "" {
		entityType := models.EntityTypeSequence
		q.EntityType = &entityType
		q.EntityID = &id
	}
	if typ := strings.TrimSpace(eventsType); typ != "" {
		eventType := models.EventType(typ)
		q.Type = &eventType
	}
	if eventsSince > 0 {
		since := time.Now().Add(-eventsSince)
		q.Since = &since
	}
	return q
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
