package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opencode-ai/tutorial/internal/logging"
	"github.com/opencode-ai/tutorial/internal/models"
	"github.com/opencode-ai/tutorial/internal/tutorial"
	"github.com/rs/zerolog"
)

// RecorderID is the subscriber id a Recorder registers under.
const RecorderID = "events.recorder"

// CompletionStore persists completed sequence ids.
type CompletionStore interface {
	MarkCompleted(ctx context.Context, c *models.Completion) error
	ListIDs(ctx context.Context) ([]string, error)
}

// Recorder subscribes to a controller, appends each notification to the
// event log and persists completions. Write failures are logged, never
// propagated into the run.
type Recorder struct {
	events      Repository
	completions CompletionStore
	logger      zerolog.Logger
	timeout     time.Duration
	now         func() time.Time

	mu        sync.Mutex
	startedAt map[string]time.Time
	lastIndex map[string]int
	cancelled map[string]bool
	errs      int
}

// NewRecorder creates a recorder. Either store may be nil to skip that part.
func NewRecorder(events Repository, completions CompletionStore) *Recorder {
	return &Recorder{
		events:      events,
		completions: completions,
		logger:      logging.Component("recorder"),
		timeout:     5 * time.Second,
		now:         time.Now,
		startedAt:   make(map[string]time.Time),
		lastIndex:   make(map[string]int),
		cancelled:   make(map[string]bool),
	}
}

// Attach subscribes the recorder to c.
func (r *Recorder) Attach(c *tutorial.Controller) error {
	return c.Subscribe(RecorderID, r)
}

// Detach unsubscribes the recorder from c.
func (r *Recorder) Detach(c *tutorial.Controller) error {
	return c.Unsubscribe(RecorderID)
}

// Failures returns how many writes failed.
func (r *Recorder) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs
}

// OnTutorialEvent implements tutorial.Subscriber.
func (r *Recorder) OnTutorialEvent(e tutorial.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	switch e.Type {
	case tutorial.EventTutorialStarted:
		r.mu.Lock()
		r.startedAt[e.SequenceID] = r.now()
		r.lastIndex[e.SequenceID] = -1
		delete(r.cancelled, e.SequenceID)
		r.mu.Unlock()

		if r.events != nil && e.Sequence != nil {
			r.check(LogTutorialStarted(ctx, r.events, e.SequenceID, e.Sequence.Name(), e.Sequence.StepCount(), 0), e)
		}

	case tutorial.EventStepChanged:
		r.mu.Lock()
		r.lastIndex[e.SequenceID] = e.StepIndex
		r.mu.Unlock()

		if r.events != nil && e.Step != nil {
			r.check(LogStepChanged(ctx, r.events, e.SequenceID, e.Step.ID(), e.StepIndex, string(e.Step.Kind())), e)
		}

	case tutorial.EventTutorialCancelled:
		elapsed, index := r.finish(e.SequenceID)
		r.mu.Lock()
		r.cancelled[e.SequenceID] = true
		r.mu.Unlock()

		if r.events != nil {
			r.check(LogTutorialCancelled(ctx, r.events, e.SequenceID, index, elapsed), e)
		}

	case tutorial.EventTutorialCompleted:
		r.mu.Lock()
		skipped := r.cancelled[e.SequenceID]
		delete(r.cancelled, e.SequenceID)
		r.mu.Unlock()

		source := models.CompletionSourceRun
		elapsed, index := r.finish(e.SequenceID)
		if skipped {
			source = models.CompletionSourceSkip
		}

		if r.completions != nil {
			r.check(r.completions.MarkCompleted(ctx, &models.Completion{
				SequenceID:  e.SequenceID,
				Source:      source,
				CompletedAt: r.now().UTC(),
			}), e)
		}
		if r.events != nil {
			if skipped {
				r.check(LogTutorialSkipped(ctx, r.events, e.SequenceID, index, elapsed), e)
			} else {
				r.check(LogTutorialCompleted(ctx, r.events, e.SequenceID, index, elapsed), e)
			}
		}
	}
}

// finish returns how long the run took and the last step index it reached.
func (r *Recorder) finish(sequenceID string) (time.Duration, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var elapsed time.Duration
	if started, ok := r.startedAt[sequenceID]; ok {
		elapsed = r.now().Sub(started)
		delete(r.startedAt, sequenceID)
	}
	index, ok := r.lastIndex[sequenceID]
	if !ok {
		index = -1
	}
	return elapsed, index
}

func (r *Recorder) check(err error, e tutorial.Event) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errs++
	r.mu.Unlock()
	r.logger.Warn().Err(err).
		Str("event", string(e.Type)).
		Str("sequence_id", e.SequenceID).
		Msg("failed to record tutorial event")
}

// Restore loads persisted completions into c and returns how many were loaded.
func Restore(ctx context.Context, store CompletionStore, c *tutorial.Controller) (int, error) {
	if store == nil {
		return 0, fmt.Errorf("completion store is required")
	}
	ids, err := store.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load completions: %w", err)
	}
	c.LoadCompletionData(ids)
	return len(ids), nil
}
