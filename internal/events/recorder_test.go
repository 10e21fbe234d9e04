package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opencode-ai/tutorial/internal/db"
	"github.com/opencode-ai/tutorial/internal/models"
	"github.com/opencode-ai/tutorial/internal/tutorial"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	marks []*models.Completion
	ids   []string
}

func (s *fakeStore) MarkCompleted(ctx context.Context, c *models.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, c)
	return nil
}

func (s *fakeStore) ListIDs(ctx context.Context) ([]string, error) {
	return s.ids, nil
}

func newController(t *testing.T) *tutorial.Controller {
	t.Helper()
	c := tutorial.NewController(nil, nil, tutorial.WithLogger(zerolog.Nop()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sequence(t *testing.T, id string) *tutorial.Sequence {
	t.Helper()
	seq, err := tutorial.NewSequence(id, []tutorial.Step{
		tutorial.NewMessageStep(id+"-1", "One", "first"),
		tutorial.NewMessageStep(id+"-2", "Two", "second"),
	})
	require.NoError(t, err)
	return seq
}

func TestRecorderCompletedRun(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{}
	c := newController(t)

	rec := NewRecorder(repo, store)
	require.NoError(t, rec.Attach(c))

	outcome, err := c.Start(context.Background(), sequence(t, "onboarding"), 0)
	require.NoError(t, err)
	require.Equal(t, tutorial.OutcomeCompleted, outcome)

	assert.Equal(t, []models.EventType{
		models.EventTypeTutorialStarted,
		models.EventTypeTutorialStepChanged,
		models.EventTypeTutorialStepChanged,
		models.EventTypeTutorialCompleted,
	}, repo.types())

	require.Len(t, store.marks, 1)
	assert.Equal(t, "onboarding", store.marks[0].SequenceID)
	assert.Equal(t, models.CompletionSourceRun, store.marks[0].Source)
	assert.Zero(t, rec.Failures())

	require.NoError(t, rec.Detach(c))
}

func TestRecorderSkipAll(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{}
	c := tutorial.NewController(nil, nil,
		tutorial.WithLogger(zerolog.Nop()),
		tutorial.WithHeadlessDelay(time.Hour),
	)
	defer c.Close()

	require.NoError(t, NewRecorder(repo, store).Attach(c))

	done := make(chan tutorial.Outcome, 1)
	go func() {
		outcome, _ := c.Start(context.Background(), sequence(t, "tips"), 0)
		done <- outcome
	}()

	require.Eventually(t, func() bool { return c.CurrentStepIndex() == 0 }, time.Second, 5*time.Millisecond)
	require.True(t, c.SkipAll())
	assert.Equal(t, tutorial.OutcomeSkipped, <-done)

	types := repo.types()
	assert.Equal(t, []models.EventType{
		models.EventTypeTutorialCancelled,
		models.EventTypeTutorialSkipped,
	}, types[len(types)-2:])

	require.Len(t, store.marks, 1)
	assert.Equal(t, models.CompletionSourceSkip, store.marks[0].Source)
}

func TestRecorderCancelledRunIsNotCompleted(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{}
	c := tutorial.NewController(nil, nil,
		tutorial.WithLogger(zerolog.Nop()),
		tutorial.WithHeadlessDelay(time.Hour),
	)
	defer c.Close()
	require.NoError(t, NewRecorder(repo, store).Attach(c))

	done := make(chan struct{})
	go func() {
		_, _ = c.Start(context.Background(), sequence(t, "tips"), 0)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.CurrentStepIndex() == 0 }, time.Second, 5*time.Millisecond)
	require.True(t, c.Cancel())
	<-done

	assert.Equal(t, models.EventTypeTutorialCancelled, repo.last().Type)
	assert.Empty(t, store.marks)
}

func TestRestore(t *testing.T) {
	c := newController(t)

	n, err := Restore(context.Background(), &fakeStore{ids: []string{"a", "b"}}, c)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, c.IsSequenceCompleted("a"))

	_, err = Restore(context.Background(), nil, c)
	require.Error(t, err)
}

func TestRecorderWithDatabase(t *testing.T) {
	ctx := context.Background()

	database, err := db.OpenInMemory()
	require.NoError(t, err)
	defer database.Close()
	_, err = database.MigrateUp(ctx)
	require.NoError(t, err)

	eventRepo := db.NewEventRepository(database)
	completionRepo := db.NewCompletionRepository(database)

	c := newController(t)
	require.NoError(t, NewRecorder(eventRepo, completionRepo).Attach(c))

	outcome, err := c.Start(ctx, sequence(t, "onboarding"), 0)
	require.NoError(t, err)
	require.Equal(t, tutorial.OutcomeCompleted, outcome)

	// A fresh controller restored from the database skips the completed sequence.
	next := newController(t)
	n, err := Restore(ctx, completionRepo, next)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	outcome, err = next.Start(ctx, sequence(t, "onboarding"), 0)
	require.NoError(t, err)
	assert.Equal(t, tutorial.OutcomeAlreadyCompleted, outcome)

	id := "onboarding"
	count, err := eventRepo.Count(ctx, db.EventQuery{EntityID: &id})
	require.NoError(t, err)
	assert.Equal(t, 2, count, "started and completed are logged against the sequence")
}
