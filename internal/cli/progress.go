// Package cli provides progress output helpers for slower setup work.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// progressOut receives progress lines; stdout stays clean for results.
var progressOut io.Writer = os.Stderr

type progressStep struct {
	label   string
	started time.Time
}

// startProgress prints label and returns a handle to finish the line. It
// returns nil when progress output is disabled; the methods accept nil.
func startProgress(label string) *progressStep {
	if !progressEnabled() {
		return nil
	}
	fmt.Fprintf(progressOut, "%s... ", label)
	return &progressStep{label: label, started: time.Now()}
}

// Done finishes the line, with an optional detail such as a count.
func (p *progressStep) Done(detail string) {
	if p == nil {
		return
	}
	elapsed := formatDuration(time.Since(p.started))
	if detail != "" {
		fmt.Fprintf(progressOut, "%s (%s)\n", detail, elapsed)
		return
	}
	fmt.Fprintf(progressOut, "done (%s)\n", elapsed)
}

func (p *progressStep) Fail(err error) {
	if p == nil {
		return
	}
	if err != nil {
		fmt.Fprintf(progressOut, "failed: %v\n", err)
		return
	}
	fmt.Fprintln(progressOut, "failed")
}

func progressEnabled() bool {
	if IsJSONOutput() || IsJSONLOutput() || noProgress {
		return false
	}
	if _, ok := os.LookupEnv("TUTORIAL_NO_PROGRESS"); ok {
		return false
	}
	if _, ok := os.LookupEnv("NO_PROGRESS"); ok {
		return false
	}
	return true
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	if d < time.Second {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
