package store

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
)

// Ledger records runs and their failures for later inspection.
//
// A nil *Ledger is valid and records nothing. Errors are logged and never
// returned, a broken database must not fail an extraction.
type Ledger struct {
	Queries *Queries
	Now     func() time.Time
}

func NewLedger(q *Queries) *Ledger {
	return &Ledger{Queries: q, Now: time.Now}
}

// Start records a running run and returns its id, empty if nothing was recorded.
func (l *Ledger) Start(ctx context.Context, kind RunKind, target string) string {
	if l == nil {
		return ""
	}

	id := uuid.NewString()
	if err := l.Queries.CreateRun(ctx, CreateRunParams{
		ID:        id,
		Kind:      string(kind),
		TargetUrl: target,
		StartedAt: l.now(),
	}); err != nil {
		log.Printf("[WARN]: recording %s run for %q: %v", kind, target, err)
		return ""
	}

	return id
}

// Finish marks the run as done, failed when runErr is not nil.
func (l *Ledger) Finish(ctx context.Context, id string, runErr error, segments int, tracePath string) {
	if l == nil || id == "" {
		return
	}

	arg := FinishRunParams{
		ID:         id,
		Status:     string(RunStatusOK),
		Segments:   int64(segments),
		TracePath:  sql.NullString{String: tracePath, Valid: tracePath != ""},
		FinishedAt: l.now(),
	}
	if runErr != nil {
		arg.Status = string(RunStatusFailed)
		arg.Error = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if err := l.Queries.FinishRun(ctx, arg); err != nil {
		log.Printf("[WARN]: finishing run %s: %v", id, err)
	}
}

// Failure records that the video at videoURL failed during run id.
func (l *Ledger) Failure(ctx context.Context, id string, videoURL string, msg string) {
	if l == nil || id == "" {
		return
	}

	if err := l.Queries.CreateFailure(ctx, CreateFailureParams{
		ID:        uuid.NewString(),
		RunID:     id,
		Type:      string(FailureTypeExtraction),
		Data:      videoURL,
		Error:     msg,
		CreatedAt: l.now(),
	}); err != nil {
		log.Printf("[WARN]: recording failure of %q in run %s: %v", videoURL, id, err)
	}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}
