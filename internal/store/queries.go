package store

import (
	"context"
	"database/sql"
	"time"
)

const createRun = `INSERT INTO runs (id, kind, target_url, status, started_at)
VALUES ($1, $2, $3, $4, $5)`

type CreateRunParams struct {
	ID        string
	Kind      string
	TargetUrl string
	StartedAt time.Time
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun,
		arg.ID,
		arg.Kind,
		arg.TargetUrl,
		string(RunStatusRunning),
		arg.StartedAt,
	)
	return err
}

const finishRun = `UPDATE runs
SET status = $1, error = $2, segments = $3, trace_path = $4, finished_at = $5
WHERE id = $6`

type FinishRunParams struct {
	Status     string
	Error      sql.NullString
	Segments   int64
	TracePath  sql.NullString
	FinishedAt time.Time
	ID         string
}

func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) error {
	_, err := q.db.ExecContext(ctx, finishRun,
		arg.Status,
		arg.Error,
		arg.Segments,
		arg.TracePath,
		arg.FinishedAt,
		arg.ID,
	)
	return err
}

const runColumns = `id, kind, target_url, status, error, segments, trace_path, started_at, finished_at`

const getRun = `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

func (q *Queries) Run(ctx context.Context, id string) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.TargetUrl,
		&i.Status,
		&i.Error,
		&i.Segments,
		&i.TracePath,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const listRuns = `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT $1`

func (q *Queries) Runs(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.TargetUrl,
			&i.Status,
			&i.Error,
			&i.Segments,
			&i.TracePath,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createFailure = `INSERT INTO failures (id, run_id, type, data, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

type CreateFailureParams struct {
	ID        string
	RunID     string
	Type      string
	Data      string
	Error     string
	CreatedAt time.Time
}

func (q *Queries) CreateFailure(ctx context.Context, arg CreateFailureParams) error {
	_, err := q.db.ExecContext(ctx, createFailure,
		arg.ID,
		arg.RunID,
		arg.Type,
		arg.Data,
		arg.Error,
		arg.CreatedAt,
	)
	return err
}

const failuresOfType = `SELECT id, run_id, type, data, error, created_at
FROM failures WHERE type = $1 ORDER BY created_at`

func (q *Queries) Failures(ctx context.Context, typ string) ([]Failure, error) {
	rows, err := q.db.QueryContext(ctx, failuresOfType, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Failure
	for rows.Next() {
		var i Failure
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.Type,
			&i.Data,
			&i.Error,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
