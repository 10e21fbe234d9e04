// Package components provides reusable rendering pieces for the terminal
// presentations.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

// RenderStateBadge renders a tutorial run state with icon and color.
func RenderStateBadge(styleSet styles.Styles, state tutorial.State) string {
	icon, label, style := stateDescriptor(styleSet, state)
	return style.Render(fmt.Sprintf("%s %s", icon, label))
}

func stateDescriptor(styleSet styles.Styles, state tutorial.State) (string, string, lipgloss.Style) {
	switch state {
	case tutorial.StateRunning:
		return ">", "Running", styleSet.StateRunning
	case tutorial.StatePaused:
		return "||", "Paused", styleSet.StatePaused
	case tutorial.StateCompleted:
		return "OK", "Completed", styleSet.StateCompleted
	case tutorial.StateCancelled:
		return "x", "Cancelled", styleSet.StateCancelled
	case tutorial.StateIdle:
		return "-", "Idle", styleSet.StateIdle
	default:
		return "-", normalizeLabel(string(state)), styleSet.Muted
	}
}

// RenderStepBadge renders a step's lifecycle state.
func RenderStepBadge(styleSet styles.Styles, state tutorial.StepState) string {
	switch state {
	case tutorial.StepActive:
		return styleSet.Focus.Render("> " + normalizeLabel(string(state)))
	case tutorial.StepCompleted:
		return styleSet.Success.Render("OK " + normalizeLabel(string(state)))
	case tutorial.StepSkipped:
		return styleSet.Warning.Render(">> " + normalizeLabel(string(state)))
	default:
		return styleSet.Muted.Render("- " + normalizeLabel(string(state)))
	}
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return "Unknown"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
