package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RunRecord preserves one run's counters for the status API. The
// pipeline never reads these back; they are observability only.
type RunRecord struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	MentionsFound    int
	RepliesSucceeded int
	RepliesFailed    int
}

func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	id := strings.TrimSpace(run.ID)
	if id == "" {
		return fmt.Errorf("run record requires an id")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
			id, started_at_unix, finished_at_unix,
			mentions_found, replies_succeeded, replies_failed
		) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		run.StartedAt.UTC().Unix(),
		run.FinishedAt.UTC().Unix(),
		run.MentionsFound,
		run.RepliesSucceeded,
		run.RepliesFailed,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at_unix, finished_at_unix,
			mentions_found, replies_succeeded, replies_failed
		 FROM runs
		 ORDER BY started_at_unix DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var run RunRecord
		var startedAtUnix, finishedAtUnix int64
		if err := rows.Scan(
			&run.ID,
			&startedAtUnix,
			&finishedAtUnix,
			&run.MentionsFound,
			&run.RepliesSucceeded,
			&run.RepliesFailed,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		run.StartedAt = time.Unix(startedAtUnix, 0).UTC()
		run.FinishedAt = time.Unix(finishedAtUnix, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
