// Package cli provides output helpers shared by commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
)

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// WriteOutput writes v as indented JSON, or as one JSON object per line of a
// slice when --jsonl is set.
func WriteOutput(out io.Writer, v any) error {
	if IsJSONLOutput() {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			enc := json.NewEncoder(out)
			for i := 0; i < rv.Len(); i++ {
				if err := enc.Encode(rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
		return json.NewEncoder(out).Encode(v)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func colorEnabled() bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return hasTTY()
}

func colorize(text, color string) string {
	if color == "" || !colorEnabled() {
		return text
	}
	return fmt.Sprintf("%s%s%s", color, text, colorReset)
}
