// Package events records tutorial activity in the event log and persists
// sequence completions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencode-ai/tutorial/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// LogTutorialStarted records the start of a sequence run.
func LogTutorialStarted(ctx context.Context, repo Repository, sequenceID, name string, stepCount, startStep int) error {
	return logEvent(ctx, repo, models.EventTypeTutorialStarted, models.EntityTypeSequence, sequenceID,
		models.TutorialStartedPayload{
			SequenceName: name,
			StepCount:    stepCount,
			StartStep:    startStep,
		})
}

// LogStepChanged records that a run entered a new step.
func LogStepChanged(ctx context.Context, repo Repository, sequenceID, stepID string, index int, kind string) error {
	return logEvent(ctx, repo, models.EventTypeTutorialStepChanged, models.EntityTypeStep, stepID,
		models.StepChangedPayload{
			SequenceID: sequenceID,
			StepIndex:  index,
			StepKind:   kind,
		})
}

// LogTutorialCompleted records a sequence that ran to its end.
func LogTutorialCompleted(ctx context.Context, repo Repository, sequenceID string, stepIndex int, elapsed time.Duration) error {
	return logFinished(ctx, repo, models.EventTypeTutorialCompleted, sequenceID, stepIndex, elapsed)
}

// LogTutorialCancelled records a run that was cancelled before its end.
func LogTutorialCancelled(ctx context.Context, repo Repository, sequenceID string, stepIndex int, elapsed time.Duration) error {
	return logFinished(ctx, repo, models.EventTypeTutorialCancelled, sequenceID, stepIndex, elapsed)
}

// LogTutorialSkipped records a run the user skipped entirely.
func LogTutorialSkipped(ctx context.Context, repo Repository, sequenceID string, stepIndex int, elapsed time.Duration) error {
	return logFinished(ctx, repo, models.EventTypeTutorialSkipped, sequenceID, stepIndex, elapsed)
}

// LogCompletionReset records that stored completions were cleared.
func LogCompletionReset(ctx context.Context, repo Repository, sequenceIDs []string, all bool) error {
	return logEvent(ctx, repo, models.EventTypeCompletionReset, models.EntityTypeSystem, "completions",
		models.CompletionResetPayload{SequenceIDs: sequenceIDs, All: all})
}

// CompletionMarked builds the completion.marked event for a sequence marked
// done outside a run. Callers store it next to the completion itself.
func CompletionMarked(sequenceID string, source models.CompletionSource) (*models.Event, error) {
	return newEvent(models.EventTypeCompletionMarked, models.EntityTypeSequence, sequenceID,
		models.CompletionMarkedPayload{Source: source})
}

func logFinished(ctx context.Context, repo Repository, typ models.EventType, sequenceID string, stepIndex int, elapsed time.Duration) error {
	payload := models.TutorialFinishedPayload{StepIndex: stepIndex}
	if elapsed > 0 {
		payload.Duration = elapsed.Round(time.Millisecond).String()
	}
	return logEvent(ctx, repo, typ, models.EntityTypeSequence, sequenceID, payload)
}

func logEvent(ctx context.Context, repo Repository, typ models.EventType, entityType models.EntityType, entityID string, payload any) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	event, err := newEvent(typ, entityType, entityID, payload)
	if err != nil {
		return err
	}
	return repo.Create(ctx, event)
}

func newEvent(typ models.EventType, entityType models.EntityType, entityID string, payload any) (*models.Event, error) {
	if entityID == "" {
		return nil, fmt.Errorf("%s id is required", entityType)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}

	return &models.Event{
		Type:       typ,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    data,
	}, nil
}
