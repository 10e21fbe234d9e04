package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.MigrateUp(context.Background())
	require.NoError(t, err)
	return database
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	ctx := context.Background()

	database, err := OpenInMemory()
	require.NoError(t, err)
	defer database.Close()

	applied, err := database.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = database.MigrateUp(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	version, err := database.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tutorial.db")

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, path, database.Path())
	_, err = database.MigrateUp(context.Background())
	require.NoError(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}
