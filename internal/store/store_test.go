package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/laytan/tubescript/internal/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, store.Migrate(db, "sqlite3"))
	return db
}

// clock returns a Now func advancing a second per call.
func clock() func() time.Time {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestLedger_Run(t *testing.T) {
	ctx := context.Background()
	q := store.New(openTestDB(t))
	l := store.NewLedger(q)
	l.Now = clock()

	ok := l.Start(ctx, store.RunKindTranscript, "https://www.youtube.com/watch?v=1")
	require.NotEmpty(t, ok)
	l.Finish(ctx, ok, nil, 42, "traces/trace-1.zip")

	failed := l.Start(ctx, store.RunKindTranscript, "https://www.youtube.com/watch?v=2")
	l.Finish(ctx, failed, errors.New("panel did not appear"), 0, "")

	running := l.Start(ctx, store.RunKindPlaylist, "https://www.youtube.com/playlist?list=PL")

	run, err := q.Run(ctx, ok)
	require.NoError(t, err)
	assert.Equal(t, string(store.RunKindTranscript), run.Kind)
	assert.Equal(t, string(store.RunStatusOK), run.Status)
	assert.Equal(t, int64(42), run.Segments)
	assert.Equal(t, sql.NullString{String: "traces/trace-1.zip", Valid: true}, run.TracePath)
	assert.False(t, run.Error.Valid)
	assert.True(t, run.FinishedAt.Valid)
	assert.True(t, run.FinishedAt.Time.After(run.StartedAt))

	run, err = q.Run(ctx, failed)
	require.NoError(t, err)
	assert.Equal(t, string(store.RunStatusFailed), run.Status)
	assert.Equal(t, "panel did not appear", run.Error.String)
	assert.False(t, run.TracePath.Valid)

	runs, err := q.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, running, runs[0].ID)
	assert.Equal(t, string(store.RunStatusRunning), runs[0].Status)
	assert.False(t, runs[0].FinishedAt.Valid)
	assert.Equal(t, failed, runs[1].ID)
}

func TestLedger_Failures(t *testing.T) {
	ctx := context.Background()
	q := store.New(openTestDB(t))
	l := store.NewLedger(q)
	l.Now = clock()

	id := l.Start(ctx, store.RunKindPlaylist, "https://www.youtube.com/playlist?list=PL")
	l.Failure(ctx, id, "https://www.youtube.com/watch?v=2", `could not find "Show transcript" control`)
	l.Failure(ctx, id, "https://www.youtube.com/watch?v=5", "transcript panel did not appear")

	failures, err := q.Failures(ctx, string(store.FailureTypeExtraction))
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, id, failures[0].RunID)
	assert.Equal(t, "https://www.youtube.com/watch?v=2", failures[0].Data)
	assert.Equal(t, `could not find "Show transcript" control`, failures[0].Error)
	assert.Equal(t, "https://www.youtube.com/watch?v=5", failures[1].Data)

	none, err := q.Failures(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedger_Nil(t *testing.T) {
	var l *store.Ledger
	ctx := context.Background()

	assert.Empty(t, l.Start(ctx, store.RunKindTranscript, "u"))
	assert.NotPanics(t, func() {
		l.Finish(ctx, "id", nil, 1, "")
		l.Failure(ctx, "id", "u", "boom")
	})
}

func TestLedger_DatabaseErrorsAreSwallowed(t *testing.T) {
	db := openTestDB(t)
	l := store.NewLedger(store.New(db))
	require.NoError(t, db.Close())

	ctx := context.Background()
	assert.Empty(t, l.Start(ctx, store.RunKindTranscript, "u"))
	assert.NotPanics(t, func() {
		l.Finish(ctx, "id", nil, 1, "")
		l.Failure(ctx, "id", "u", "boom")
	})
}
