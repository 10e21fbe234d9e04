package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/opencode-ai/tutorial/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRepositoryMarkAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewCompletionRepository(openTestDB(t))

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkCompleted(ctx, &models.Completion{
		SequenceID:  "onboarding",
		Source:      models.CompletionSourceSkip,
		CompletedAt: first,
	}))

	// A second mark keeps the original record.
	require.NoError(t, repo.MarkCompleted(ctx, &models.Completion{SequenceID: "onboarding"}))

	got, err := repo.Get(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, models.CompletionSourceSkip, got.Source)
	assert.True(t, first.Equal(got.CompletedAt))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrCompletionNotFound)
}

func TestCompletionRepositoryRejectsInvalid(t *testing.T) {
	repo := NewCompletionRepository(openTestDB(t))

	err := repo.MarkCompleted(context.Background(), &models.Completion{})
	require.ErrorIs(t, err, ErrInvalidCompletion)

	err = repo.MarkCompleted(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidCompletion)
}

func TestCompletionRepositoryListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewCompletionRepository(openTestDB(t))

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, repo.MarkCompleted(ctx, &models.Completion{SequenceID: id}))
	}

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, repo.Delete(ctx, "b"))
	require.ErrorIs(t, repo.Delete(ctx, "b"), ErrCompletionNotFound)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err = repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCompletionWithEventInTransaction(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	completions := NewCompletionRepository(database)
	events := NewEventRepository(database)

	err := database.Transaction(ctx, func(tx *sql.Tx) error {
		if err := completions.MarkCompletedWithTx(ctx, tx, &models.Completion{SequenceID: "onboarding"}); err != nil {
			return err
		}
		return events.CreateWithTx(ctx, tx, &models.Event{
			Type:       models.EventTypeTutorialCompleted,
			EntityType: models.EntityTypeSequence,
			EntityID:   "onboarding",
		})
	})
	require.NoError(t, err)

	_, err = completions.Get(ctx, "onboarding")
	require.NoError(t, err)
	n, err := events.Count(ctx, EventQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = database.Transaction(ctx, func(tx *sql.Tx) error {
		if err := completions.MarkCompletedWithTx(ctx, tx, &models.Completion{SequenceID: "rolled-back"}); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	require.ErrorIs(t, err, sql.ErrTxDone)

	_, err = completions.Get(ctx, "rolled-back")
	require.ErrorIs(t, err, ErrCompletionNotFound)
}
