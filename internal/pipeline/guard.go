package pipeline

import "context"

type ReplyLog interface {
	ReplyExists(ctx context.Context, sourcePostID string) (bool, error)
}

// DuplicateGuard answers whether a root post already has a recorded
// reply. The store's uniqueness constraint on source_post_id is the
// hard backstop; this read-side check exists to avoid spending a
// generation and a publish on a root that is already answered.
type DuplicateGuard struct {
	records ReplyLog
}

func NewDuplicateGuard(records ReplyLog) *DuplicateGuard {
	return &DuplicateGuard{records: records}
}

func (g *DuplicateGuard) AlreadyReplied(ctx context.Context, rootPostID string) (bool, error) {
	return g.records.ReplyExists(ctx, rootPostID)
}
