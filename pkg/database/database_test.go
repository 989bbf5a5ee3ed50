package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "eval.db")

	db, err := New(context.Background(), WithDriver("sqlite3"), WithDataSource(dsn), WithMaxOpenConns(1))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), WithDriver("oracle"))
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = New(context.Background(), WithDataSource(""))
	assert.ErrorContains(t, err, "data source cannot be empty")
}

func TestNew_RetriesThenFails(t *testing.T) {
	// The directory does not exist, so every ping fails.
	dsn := filepath.Join(t.TempDir(), "missing", "eval.db")

	start := time.Now()
	_, err := New(context.Background(), WithDataSource(dsn), WithRetry(2, 10*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestNew_ContextCanceledDuringBackoff(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "missing", "eval.db")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(ctx, WithDataSource(dsn), WithRetry(5, time.Hour))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
