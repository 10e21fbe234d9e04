// Package sequences loads tutorial definitions from YAML and builds engine
// sequences from them.
package sequences

import (
	"strings"

	"github.com/opencode-ai/tutorial/internal/tutorial"
)

// Definition is a tutorial sequence as written on disk.
type Definition struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Priority    int              `yaml:"priority,omitempty"`
	CanSkipAll  *bool            `yaml:"can_skip_all,omitempty"`
	Tags        []string         `yaml:"tags,omitempty"`
	Variables   []Variable       `yaml:"variables,omitempty"`
	Steps       []StepDefinition `yaml:"steps"`
	Source      string           `yaml:"-"` // file path or "builtin"
}

// StepDefinition is a single step of a definition. Which fields apply depends
// on Type.
type StepDefinition struct {
	ID            string          `yaml:"id,omitempty"`
	Type          StepType        `yaml:"type"`
	Title         string          `yaml:"title,omitempty"`
	Message       string          `yaml:"message,omitempty"`
	Content       string          `yaml:"content,omitempty"`
	CanSkip       *bool           `yaml:"can_skip,omitempty"`
	DelayBefore   string          `yaml:"delay_before,omitempty"`
	DelayAfter    string          `yaml:"delay_after,omitempty"`
	Wait          *bool           `yaml:"wait,omitempty"`
	Target        string          `yaml:"target,omitempty"`
	RequireTarget *bool           `yaml:"require_target,omitempty"`
	Position      *tutorial.Point `yaml:"position,omitempty"`
	Animate       *bool           `yaml:"animate,omitempty"`
}

// Variable describes a template variable used in step text.
type Variable struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Default     string `yaml:"default,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
}

// StepType defines the kind of step.
type StepType string

const (
	StepTypeMessage   StepType = "message"
	StepTypeHighlight StepType = "highlight"
	StepTypePointer   StepType = "pointer"
)

// DisplayName returns Name, falling back to ID.
func (d *Definition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Skippable reports whether the whole sequence may be skipped. Default: true.
func (d *Definition) Skippable() bool {
	return boolOr(d.CanSkipAll, true)
}

// HasTag reports whether the definition carries tag, case-insensitively.
func (d *Definition) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
