// Package store persists an audit trail of ingestion runs in Postgres.
// The chat path never touches it; a missing database only disables the
// status endpoint.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Ingestion run statuses.
const (
	IngestionStatusRunning = "running"
	IngestionStatusSuccess = "success"
	IngestionStatusFailed  = "failed"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// IngestionRun is one recorded rebuild of a course namespace.
type IngestionRun struct {
	ID         string         `json:"id"`
	CourseID   int            `json:"course_id"`
	CourseName string         `json:"course_name,omitempty"`
	ChunkCount int            `json:"chunk_count"`
	KindCounts map[string]int `json:"kind_counts,omitempty"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// StartIngestion records the beginning of a run and returns its id.
func (s *Store) StartIngestion(ctx context.Context, courseID int) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO ingestion_runs (id, course_id, status, started_at)
VALUES ($1,$2,$3,NOW())
`, id, courseID, IngestionStatusRunning)
	if err != nil {
		return "", fmt.Errorf("start ingestion: %w", err)
	}
	return id, nil
}

// FinishIngestion closes a run with its outcome. Counts are stored as jsonb.
func (s *Store) FinishIngestion(ctx context.Context, runID, courseName string, chunkCount int, counts map[string]int, status, errMsg string) error {
	if counts == nil {
		counts = map[string]int{}
	}
	countBytes, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal kind counts: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
UPDATE ingestion_runs
SET course_name = $2,
    chunk_count = $3,
    kind_counts = $4,
    status      = $5,
    error       = $6,
    finished_at = NOW()
WHERE id = $1
`, runID, courseName, chunkCount, countBytes, status, errMsg)
	if err != nil {
		return fmt.Errorf("finish ingestion: %w", err)
	}
	return nil
}

// LatestIngestion returns the most recent run for a course. Bool indicates
// whether any run exists.
func (s *Store) LatestIngestion(ctx context.Context, courseID int) (IngestionRun, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, course_id, course_name, chunk_count, kind_counts, status, error, started_at, finished_at
FROM ingestion_runs
WHERE course_id = $1
ORDER BY started_at DESC
LIMIT 1
`, courseID)
	var (
		run        IngestionRun
		name       sql.NullString
		errMsg     sql.NullString
		countBytes []byte
		finished   sql.NullTime
	)
	if err := row.Scan(&run.ID, &run.CourseID, &name, &run.ChunkCount, &countBytes, &run.Status, &errMsg, &run.StartedAt, &finished); err != nil {
		if err == sql.ErrNoRows {
			return IngestionRun{}, false, nil
		}
		return IngestionRun{}, false, err
	}
	run.CourseName = name.String
	run.Error = errMsg.String
	if len(countBytes) > 0 {
		_ = json.Unmarshal(countBytes, &run.KindCounts)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, true, nil
}
