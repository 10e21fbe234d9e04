package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/opencode-ai/tutorial/internal/tui/styles"
)

// ProgressPercent rounds a [0,1] fraction to a whole percentage.
func ProgressPercent(fraction float64) int {
	return int(math.Round(clamp(fraction) * 100))
}

// RenderProgressBar draws a bar of width cells followed by the percentage.
func RenderProgressBar(styleSet styles.Styles, width int, fraction float64) string {
	if width < 1 {
		width = 1
	}
	filled := int(math.Round(clamp(fraction) * float64(width)))

	bar := styleSet.ProgressFill.Render(strings.Repeat("#", filled)) +
		styleSet.ProgressEmpty.Render(strings.Repeat("-", width-filled))
	return fmt.Sprintf("[%s] %3d%%", bar, ProgressPercent(fraction))
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
