package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursors hold high-water marks, keyed by name. The pipeline stores the
// newest mention ID it observed so mentions deferred past the trailing
// window are still picked up on the next run.
const CursorLastMentionID = "last_mention_id"

func (s *Store) SaveCursor(ctx context.Context, name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("cursor requires a name")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cursors (name, value, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at_unix = excluded.updated_at_unix`,
		name,
		strings.TrimSpace(value),
		time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func (s *Store) LoadCursor(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cursors WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load cursor: %w", err)
	}
	return value, nil
}
