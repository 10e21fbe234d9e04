package models

import (
	"strings"
	"time"
)

// CompletionSource records how a sequence came to be completed.
type CompletionSource string

const (
	CompletionSourceRun    CompletionSource = "run"
	CompletionSourceSkip   CompletionSource = "skip"
	CompletionSourceImport CompletionSource = "import"
)

// Completion marks a tutorial sequence as done so it is not offered again.
type Completion struct {
	SequenceID  string           `json:"sequence_id"`
	Source      CompletionSource `json:"source"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Validate checks if the completion is valid.
func (c *Completion) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(c.SequenceID) == "" {
		validation.AddMessage("sequence_id", "sequence_id is required")
	}
	switch c.Source {
	case CompletionSourceRun, CompletionSourceSkip, CompletionSourceImport:
	default:
		validation.AddMessage("source", "unknown completion source")
	}
	return validation.Err()
}
