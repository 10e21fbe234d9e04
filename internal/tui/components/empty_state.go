package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/tutorial/internal/tui/styles"
)

// EmptyState represents an empty state message with optional suggestions.
type EmptyState struct {
	// Icon is an optional icon to display.
	Icon string
	// Title is the main empty state message.
	Title string
	// Subtitle is an optional secondary message.
	Subtitle string
	// Suggestions are actionable commands the user can run.
	Suggestions []Suggestion
}

// Suggestion represents a suggested command with description.
type Suggestion struct {
	// Command is the CLI command to run (e.g., "tutorial run onboarding").
	Command string
	// Description explains what the command does.
	Description string
}

// Render renders the empty state with the given styles.
func (e EmptyState) Render(styleSet styles.Styles) string {
	var lines []string

	// Icon + Title
	titleLine := e.Title
	if e.Icon != "" {
		titleLine = e.Icon + "  " + titleLine
	}
	lines = append(lines, styleSet.Muted.Render(titleLine))

	// Subtitle
	if e.Subtitle != "" {
		lines = append(lines, styleSet.Muted.Render(e.Subtitle))
	}

	// Suggestions
	if len(e.Suggestions) > 0 {
		lines = append(lines, "")
		lines = append(lines, styleSet.Text.Render("Get started:"))
		for _, s := range e.Suggestions {
			cmdLine := fmt.Sprintf("  %s", styleSet.Accent.Render(s.Command))
			if s.Description != "" {
				cmdLine += styleSet.Muted.Render(fmt.Sprintf("  # %s", s.Description))
			}
			lines = append(lines, cmdLine)
		}
	}

	return strings.Join(lines, "\n")
}

// RenderCompact renders a compact single-line empty state.
func (e EmptyState) RenderCompact(styleSet styles.Styles) string {
	line := e.Title
	if e.Icon != "" {
		line = e.Icon + " " + line
	}
	if len(e.Suggestions) > 0 {
		line += fmt.Sprintf(" Try: %s", e.Suggestions[0].Command)
	}
	return styleSet.Muted.Render(line)
}

// Common empty states for reuse across views.

// EmptySequences returns an empty state for when no definitions were found.
func EmptySequences() EmptyState {
	return EmptyState{
		Title:    "No tutorials found",
		Subtitle: "Definitions are loaded from .tutorial/sequences and ~/.config/tutorial/sequences.",
		Suggestions: []Suggestion{
			{Command: "tutorial list --json", Description: "check which definitions load"},
		},
	}
}

// AllCompleted returns an empty state for when every tutorial is done.
func AllCompleted() EmptyState {
	return EmptyState{
		Title:    "All tutorials completed",
		Subtitle: "Nothing left to show.",
		Suggestions: []Suggestion{
			{Command: "tutorial reset --all", Description: "start over"},
		},
	}
}

// NoTutorialRunning returns an empty state for an overlay with no active run.
func NoTutorialRunning() EmptyState {
	return EmptyState{
		Title:    "No tutorial running",
		Subtitle: "Waiting for the next step.",
	}
}

// EmptyEvents returns an empty state for when the event log is empty.
func EmptyEvents(sequenceID string) EmptyState {
	if sequenceID != "" {
		return EmptyState{
			Title:    fmt.Sprintf("No events for '%s'", sequenceID),
			Subtitle: "Events are recorded while a tutorial runs.",
		}
	}
	return EmptyState{
		Title:    "No events yet",
		Subtitle: "Events are recorded while a tutorial runs.",
		Suggestions: []Suggestion{
			{Command: "tutorial next", Description: "run the next pending tutorial"},
		},
	}
}
