package models

import (
	"errors"
	"testing"
)

func TestEventValidate(t *testing.T) {
	var e Event
	err := e.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	var verr *ValidationErrors
	if !errors.As(err, &verr) || len(verr.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %v", err)
	}

	e = Event{Type: EventTypeTutorialStarted, EntityType: EntityTypeSequence, EntityID: "onboarding"}
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCompletionValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Completion
		wantErr bool
	}{
		{name: "valid", c: Completion{SequenceID: "a", Source: CompletionSourceRun}},
		{name: "skip", c: Completion{SequenceID: "a", Source: CompletionSourceSkip}},
		{name: "missing id", c: Completion{Source: CompletionSourceRun}, wantErr: true},
		{name: "bad source", c: Completion{SequenceID: "a", Source: "magic"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
