// Package cli provides tests for sequence CLI helpers.
package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/tutorial/internal/sequences"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

func boolPtr(v bool) *bool { return &v }

func TestFilterDefinitions(t *testing.T) {
	items := []*sequences.Definition{
		{ID: "a", Tags: []string{"first-run", "basics"}},
		{ID: "b", Tags: []string{"tips"}},
		{ID: "c", Tags: []string{"first-run"}},
		{ID: "d", Tags: nil},
	}

	tests := []struct {
		name     string
		tags     []string
		expected int
	}{
		{"no filter", nil, 4},
		{"filter first-run", []string{"first-run"}, 2},
		{"filter tips", []string{"tips"}, 1},
		{"filter multiple", []string{"first-run", "tips"}, 3},
		{"case insensitive", []string{"TIPS"}, 1},
		{"filter nonexistent", []string{"nonexistent"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterDefinitions(items, tt.tags)
			if len(result) != tt.expected {
				t.Errorf("filterDefinitions() = %d items, want %d", len(result), tt.expected)
			}
		})
	}
}

func TestFindDefinitionByID(t *testing.T) {
	items := []*sequences.Definition{
		{ID: "onboarding"},
		{ID: "projects"},
		{ID: "shortcuts"},
	}

	tests := []struct {
		name    string
		search  string
		wantNil bool
	}{
		{"exact match", "onboarding", false},
		{"case insensitive", "PROJECTS", false},
		{"surrounding space", " shortcuts ", false},
		{"not found", "nonexistent", true},
		{"partial match fails", "onboard", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := findDefinitionByID(items, tt.search)
			if (result == nil) != tt.wantNil {
				t.Errorf("findDefinitionByID(%q) nil = %v, want nil = %v", tt.search, result == nil, tt.wantNil)
			}
		})
	}
}

func TestParseSequenceVars(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
		wantErr bool
	}{
		{"single var", []string{"key=value"}, 1, false},
		{"multiple vars", []string{"k1=v1", "k2=v2"}, 2, false},
		{"comma separated", []string{"k1=v1,k2=v2"}, 2, false},
		{"empty value", []string{"key="}, 1, false},
		{"missing equals", []string{"invalid"}, 0, true},
		{"empty key", []string{"=value"}, 0, true},
		{"empty input", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseSequenceVars(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSequenceVars() error = %v, wantErr = %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(result) != tt.wantLen {
				t.Errorf("parseSequenceVars() = %d vars, want %d", len(result), tt.wantLen)
			}
		})
	}
}

func TestNormalizeSequenceID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple id", "onboarding", false},
		{"with dashes", "first-run", false},
		{"with underscores", "first_run", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"with slash", "foo/bar", true},
		{"with dots", "foo..bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeSequenceID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeSequenceID(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestDefinitionSourceLabel(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		userDir    string
		projectDir string
		want       string
	}{
		{"builtin", "builtin", "/home/user/.config/tutorial/sequences", "/project/.tutorial/sequences", "builtin"},
		{"user sequence", "/home/user/.config/tutorial/sequences/foo.yaml", "/home/user/.config/tutorial/sequences", "", "user"},
		{"project sequence", "/project/.tutorial/sequences/bar.yaml", "", "/project/.tutorial/sequences", "project"},
		{"other file", "/some/other/path.yaml", "/home/user/.config/tutorial/sequences", "/project/.tutorial/sequences", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := definitionSourceLabel(tt.source, tt.userDir, tt.projectDir)
			if result != tt.want {
				t.Errorf("definitionSourceLabel() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestFormatStepDefinition(t *testing.T) {
	step := sequences.StepDefinition{
		Type:          sequences.StepTypeHighlight,
		Target:        "save",
		RequireTarget: boolPtr(false),
		Title:         "Save",
		Message:       "Click save",
		CanSkip:       boolPtr(false),
		DelayBefore:   "200ms",
	}

	got := formatStepDefinition(step)
	want := "[highlight:save:tap] Save: Click save (no skip, before 200ms)"
	if got != want {
		t.Fatalf("formatStepDefinition() = %q, want %q", got, want)
	}

	pointer := sequences.StepDefinition{
		Type:     sequences.StepTypePointer,
		Position: &tutorial.Point{X: 0.5, Y: 1},
	}
	if short := formatStepDefinitionShort(pointer); short != "pointer:(0.5, 1)" {
		t.Fatalf("formatStepDefinitionShort() = %q, want %q", short, "pointer:(0.5, 1)")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("truncate() = %q", got)
	}
}

func TestWriteTableKeepsCellsOnOneLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"tour", "Line one\nline\ttwo"},
	}))
	assert.Equal(t, "ID    NAME\ntour  Line one line two\n", buf.String())
}
