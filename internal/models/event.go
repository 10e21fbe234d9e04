// Package models defines the persisted records of the tutorial system.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the log.
type EventType string

const (
	// Tutorial events
	EventTypeTutorialStarted     EventType = "tutorial.started"
	EventTypeTutorialStepChanged EventType = "tutorial.step_changed"
	EventTypeTutorialCompleted   EventType = "tutorial.completed"
	EventTypeTutorialCancelled   EventType = "tutorial.cancelled"
	EventTypeTutorialSkipped     EventType = "tutorial.skipped"

	// Completion store events
	EventTypeCompletionReset  EventType = "completion.reset"
	EventTypeCompletionMarked EventType = "completion.marked"

	// System events
	EventTypeError   EventType = "error"
	EventTypeWarning EventType = "warning"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeSequence EntityType = "sequence"
	EntityTypeStep     EntityType = "step"
	EntityTypeSystem   EntityType = "system"
)

// Event represents an append-only log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// TutorialStartedPayload is the payload for tutorial.started events.
type TutorialStartedPayload struct {
	SequenceName string `json:"sequence_name,omitempty"`
	StepCount    int    `json:"step_count"`
	StartStep    int    `json:"start_step,omitempty"`
}

// StepChangedPayload is the payload for tutorial.step_changed events.
type StepChangedPayload struct {
	SequenceID string `json:"sequence_id"`
	StepIndex  int    `json:"step_index"`
	StepKind   string `json:"step_kind"`
}

// TutorialFinishedPayload is the payload for tutorial.completed,
// tutorial.cancelled and tutorial.skipped events.
type TutorialFinishedPayload struct {
	Duration  string `json:"duration,omitempty"`
	StepIndex int    `json:"step_index"`
}

// CompletionResetPayload is the payload for completion.reset events.
type CompletionResetPayload struct {
	SequenceIDs []string `json:"sequence_ids,omitempty"`
	All         bool     `json:"all,omitempty"`
}

// CompletionMarkedPayload is the payload for completion.marked events.
type CompletionMarkedPayload struct {
	Source CompletionSource `json:"source"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}
