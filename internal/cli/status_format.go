// Package cli provides status formatting helpers.
package cli

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/tutorial/internal/models"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

func formatCompletion(c *models.Completion) string {
	if c == nil {
		return colorize(formatStatusLabel("TODO", ""), colorYellow)
	}
	return colorize(formatStatusLabel("DONE", string(c.Source)), colorGreen)
}

func formatOutcome(outcome tutorial.Outcome) string {
	label, color := statusLabelForOutcome(outcome)
	return colorize(formatStatusLabel(label, string(outcome)), color)
}

func statusLabelForOutcome(outcome tutorial.Outcome) (string, string) {
	switch outcome {
	case tutorial.OutcomeCompleted, tutorial.OutcomeAlreadyCompleted:
		return "OK", colorGreen
	case tutorial.OutcomeSkipped:
		return "SKIP", colorCyan
	case tutorial.OutcomeCancelled:
		return "WARN", colorMagenta
	default:
		return "ERR", colorRed
	}
}

func formatEventType(typ models.EventType) string {
	switch typ {
	case models.EventTypeTutorialCompleted, models.EventTypeCompletionMarked:
		return colorize(string(typ), colorGreen)
	case models.EventTypeTutorialCancelled:
		return colorize(string(typ), colorMagenta)
	case models.EventTypeTutorialSkipped, models.EventTypeCompletionReset:
		return colorize(string(typ), colorYellow)
	default:
		return string(typ)
	}
}

func formatStatusLabel(label, status string) string {
	normalized := strings.TrimSpace(status)
	if normalized != "" {
		normalized = strings.ReplaceAll(normalized, "_", " ")
	}
	if normalized == "" {
		return label
	}
	return fmt.Sprintf("%s %s", label, normalized)
}
