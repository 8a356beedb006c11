package store

import (
	"database/sql"
	"time"
)

type Run struct {
	ID         string
	Kind       string
	TargetUrl  string
	Status     string
	Error      sql.NullString
	Segments   int64
	TracePath  sql.NullString
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

type Failure struct {
	ID        string
	RunID     string
	Type      string
	Data      string
	Error     string
	CreatedAt time.Time
}
