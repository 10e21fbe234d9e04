package styles

import "strings"

// ThemeTokens defines the semantic color roles for the overlay.
type ThemeTokens struct {
	Background string
	Panel      string
	Text       string
	TextMuted  string
	Border     string
	Accent     string
	Focus      string
	Highlight  string
	Success    string
	Warning    string
	Error      string
	Info       string
}

// Theme bundles a palette with a name.
type Theme struct {
	Name   string
	Tokens ThemeTokens
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// ThemeByName looks up a palette case-insensitively.
func ThemeByName(name string) (Theme, bool) {
	theme, ok := Themes[strings.ToLower(strings.TrimSpace(name))]
	return theme, ok
}

// ThemeNames returns the palette names in a stable order.
func ThemeNames() []string {
	return []string{DefaultTheme.Name, HighContrastTheme.Name}
}
