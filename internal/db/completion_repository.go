package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opencode-ai/tutorial/internal/models"
)

// Completion repository errors.
var (
	ErrCompletionNotFound = errors.New("completion not found")
	ErrInvalidCompletion  = errors.New("invalid completion")
)

// CompletionRepository persists which tutorial sequences are done.
type CompletionRepository struct {
	db *DB
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(db *DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// MarkCompleted records a completion. Marking an already completed sequence
// keeps the original record.
func (r *CompletionRepository) MarkCompleted(ctx context.Context, c *models.Completion) error {
	return r.markWithExecutor(ctx, r.db, c)
}

// MarkCompletedWithTx records a completion inside an existing transaction.
func (r *CompletionRepository) MarkCompletedWithTx(ctx context.Context, tx *sql.Tx, c *models.Completion) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	return r.markWithExecutor(ctx, tx, c)
}

func (r *CompletionRepository) markWithExecutor(ctx context.Context, execer eventExecer, c *models.Completion) error {
	if c == nil {
		return ErrInvalidCompletion
	}
	if c.Source == "" {
		c.Source = models.CompletionSourceRun
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCompletion, err)
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now().UTC()
	}

	_, err := execer.ExecContext(ctx, `
		INSERT INTO completions (sequence_id, source, completed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(sequence_id) DO NOTHING
	`, c.SequenceID, string(c.Source), formatTime(c.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}
	return nil
}

// Get retrieves the completion for a sequence.
func (r *CompletionRepository) Get(ctx context.Context, sequenceID string) (*models.Completion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT sequence_id, source, completed_at
		FROM completions WHERE sequence_id = ?
	`, sequenceID)

	c, err := scanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCompletionNotFound
	}
	return c, err
}

// List returns all completions, oldest first.
func (r *CompletionRepository) List(ctx context.Context) ([]*models.Completion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sequence_id, source, completed_at
		FROM completions
		ORDER BY completed_at, sequence_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var completions []*models.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}
	return completions, nil
}

// ListIDs returns the completed sequence ids, sorted.
func (r *CompletionRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sequence_id FROM completions ORDER BY sequence_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}
	return ids, nil
}

// Delete removes the completion for a sequence.
func (r *CompletionRepository) Delete(ctx context.Context, sequenceID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM completions WHERE sequence_id = ?`, sequenceID)
	if err != nil {
		return fmt.Errorf("failed to delete completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrCompletionNotFound
	}
	return nil
}

// DeleteAll removes every completion and returns how many were removed.
func (r *CompletionRepository) DeleteAll(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM completions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

func scanCompletion(row rowScanner) (*models.Completion, error) {
	var c models.Completion
	var source, completedAt string
	if err := row.Scan(&c.SequenceID, &source, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan completion: %w", err)
	}

	c.Source = models.CompletionSource(source)
	if t, err := parseTime(completedAt); err == nil {
		c.CompletedAt = t
	}
	return &c, nil
}
