// Package styles holds the color themes shared by the terminal presentations.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Theme          Theme
	Title          lipgloss.Style
	Text           lipgloss.Style
	Muted          lipgloss.Style
	Accent         lipgloss.Style
	Panel          lipgloss.Style
	Border         lipgloss.Style
	Focus          lipgloss.Style
	Highlight      lipgloss.Style
	Pointer        lipgloss.Style
	Success        lipgloss.Style
	Warning        lipgloss.Style
	Error          lipgloss.Style
	Info           lipgloss.Style
	ProgressFill   lipgloss.Style
	ProgressEmpty  lipgloss.Style
	StateIdle      lipgloss.Style
	StateRunning   lipgloss.Style
	StatePaused    lipgloss.Style
	StateCompleted lipgloss.Style
	StateCancelled lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles for stdout.
func BuildStyles(theme Theme) Styles {
	return BuildStylesWithRenderer(lipgloss.DefaultRenderer(), theme)
}

// BuildStylesWithRenderer converts theme tokens into styles bound to r, so
// color output matches the writer r was created for.
func BuildStylesWithRenderer(r *lipgloss.Renderer, theme Theme) Styles {
	tokens := theme.Tokens
	fg := func(color string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(color))
	}

	return Styles{
		Theme:          theme,
		Title:          fg(tokens.Text).Bold(true),
		Text:           fg(tokens.Text),
		Muted:          fg(tokens.TextMuted),
		Accent:         fg(tokens.Accent),
		Panel:          fg(tokens.Text).Background(lipgloss.Color(tokens.Panel)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(tokens.Border)).Padding(0, 1),
		Border:         fg(tokens.Border),
		Focus:          fg(tokens.Focus).Bold(true),
		Highlight:      fg(tokens.Highlight).Bold(true).Underline(true),
		Pointer:        fg(tokens.Accent).Bold(true),
		Success:        fg(tokens.Success),
		Warning:        fg(tokens.Warning),
		Error:          fg(tokens.Error),
		Info:           fg(tokens.Info),
		ProgressFill:   fg(tokens.Success),
		ProgressEmpty:  fg(tokens.Border),
		StateIdle:      fg(tokens.TextMuted),
		StateRunning:   fg(tokens.Success),
		StatePaused:    fg(tokens.Warning),
		StateCompleted: fg(tokens.Info),
		StateCancelled: fg(tokens.Error),
	}
}
