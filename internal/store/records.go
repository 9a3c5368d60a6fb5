package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateReplyRecord is returned when a record for the same source
// post already exists. The reply_records table keys on source_post_id,
// so at-most-one-reply-per-root is enforced by the store itself rather
// than by the caller's check-then-act read.
var ErrDuplicateReplyRecord = errors.New("reply record already exists for source post")

// ReplyRecord is durable evidence that a reply was published for a
// given root post. Records are append-only; nothing mutates or deletes
// them.
type ReplyRecord struct {
	SourcePostID     string
	SourcePostText   string
	ReplyPostID      string
	ReplyPostText    string
	RepliedAt        time.Time
	MentionCreatedAt time.Time
}

func (s *Store) AppendReplyRecord(ctx context.Context, record ReplyRecord) error {
	sourcePostID := strings.TrimSpace(record.SourcePostID)
	if sourcePostID == "" {
		return fmt.Errorf("reply record requires a source post id")
	}
	repliedAt := record.RepliedAt
	if repliedAt.IsZero() {
		repliedAt = time.Now().UTC()
	}
	var mentionCreatedAtUnix any
	if !record.MentionCreatedAt.IsZero() {
		mentionCreatedAtUnix = record.MentionCreatedAt.UTC().Unix()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO reply_records (
			source_post_id, source_post_text, reply_post_id, reply_post_text,
			replied_at_unix, mention_created_at_unix
		) VALUES (?, ?, ?, ?, ?, ?)`,
		sourcePostID,
		record.SourcePostText,
		strings.TrimSpace(record.ReplyPostID),
		record.ReplyPostText,
		repliedAt.UTC().Unix(),
		mentionCreatedAtUnix,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return ErrDuplicateReplyRecord
		}
		return fmt.Errorf("insert reply record: %w", err)
	}
	return nil
}

func (s *Store) ReplyExists(ctx context.Context, sourcePostID string) (bool, error) {
	sourcePostID = strings.TrimSpace(sourcePostID)
	if sourcePostID == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM reply_records WHERE source_post_id = ?`,
		sourcePostID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query reply record: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListReplyRecords(ctx context.Context, limit int) ([]ReplyRecord, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT source_post_id, source_post_text, reply_post_id, reply_post_text,
			replied_at_unix, COALESCE(mention_created_at_unix, 0)
		 FROM reply_records
		 ORDER BY replied_at_unix DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list reply records: %w", err)
	}
	defer rows.Close()

	records := []ReplyRecord{}
	for rows.Next() {
		var record ReplyRecord
		var repliedAtUnix, mentionCreatedAtUnix int64
		if err := rows.Scan(
			&record.SourcePostID,
			&record.SourcePostText,
			&record.ReplyPostID,
			&record.ReplyPostText,
			&repliedAtUnix,
			&mentionCreatedAtUnix,
		); err != nil {
			return nil, fmt.Errorf("scan reply record: %w", err)
		}
		record.RepliedAt = time.Unix(repliedAtUnix, 0).UTC()
		if mentionCreatedAtUnix > 0 {
			record.MentionCreatedAt = time.Unix(mentionCreatedAtUnix, 0).UTC()
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
