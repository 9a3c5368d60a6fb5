package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mentiond/mentiond/internal/platform"
)

type PostLookup interface {
	LookupPost(ctx context.Context, id string) (platform.Post, error)
}

// ConversationResolver finds the root post a mention replies to. A
// missing conversation reference and a failed lookup are deliberately
// indistinguishable to the caller: both mean "skip, don't crash".
type ConversationResolver struct {
	lookup PostLookup
	logger *slog.Logger
}

func NewConversationResolver(lookup PostLookup, logger *slog.Logger) *ConversationResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationResolver{lookup: lookup, logger: logger}
}

func (r *ConversationResolver) Resolve(ctx context.Context, mention platform.Mention) (platform.Post, bool) {
	rootID := strings.TrimSpace(mention.ConversationRootID)
	if rootID == "" {
		return platform.Post{}, false
	}
	root, err := r.lookup.LookupPost(ctx, rootID)
	if err != nil {
		r.logger.Info("conversation root lookup failed", "error", err, "mention_id", mention.ID, "root_post_id", rootID)
		return platform.Post{}, false
	}
	return root, true
}
