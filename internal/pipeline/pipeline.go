// Package pipeline implements the mention-reply pass: fetch mentions,
// resolve each to its conversation root, skip roots that already have a
// recorded reply, generate and publish a reply, and append the durable
// record. Failures are isolated per mention; a run always completes and
// returns its counters.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/mentiond/mentiond/internal/platform"
	"github.com/mentiond/mentiond/internal/store"
)

type MentionSource interface {
	RecentMentions(ctx context.Context, query platform.MentionQuery) ([]platform.Mention, error)
}

type Publisher interface {
	PostReply(ctx context.Context, text, inReplyToID string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, sourceText string) (string, error)
}

type RecordStore interface {
	AppendReplyRecord(ctx context.Context, record store.ReplyRecord) error
	ReplyExists(ctx context.Context, sourcePostID string) (bool, error)
	SaveCursor(ctx context.Context, name, value string) error
	LoadCursor(ctx context.Context, name string) (string, error)
}

// RunStats carries one run's counters. A fresh value is built per run
// and returned from Run; nothing is accumulated across runs.
type RunStats struct {
	MentionsFound    int `json:"mentions_found"`
	RepliesSucceeded int `json:"replies_succeeded"`
	RepliesFailed    int `json:"replies_failed"`
}

type Config struct {
	AccountID        string
	PollWindow       time.Duration
	MaxRepliesPerRun int
}

type Pipeline struct {
	cfg       Config
	mentions  MentionSource
	resolver  *ConversationResolver
	guard     *DuplicateGuard
	generator Generator
	publisher Publisher
	records   RecordStore
	logger    *slog.Logger
}

func New(
	cfg Config,
	mentions MentionSource,
	resolver *ConversationResolver,
	guard *DuplicateGuard,
	generator Generator,
	publisher Publisher,
	records RecordStore,
	logger *slog.Logger,
) *Pipeline {
	if cfg.PollWindow <= 0 {
		cfg.PollWindow = 20 * time.Minute
	}
	if cfg.MaxRepliesPerRun < 1 {
		cfg.MaxRepliesPerRun = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		mentions:  mentions,
		resolver:  resolver,
		guard:     guard,
		generator: generator,
		publisher: publisher,
		records:   records,
		logger:    logger,
	}
}

// Run executes one full pass and never returns an error: a failed fetch
// yields zero mentions and per-mention failures only move counters.
func (p *Pipeline) Run(ctx context.Context) RunStats {
	stats := RunStats{}

	sinceID, err := p.records.LoadCursor(ctx, store.CursorLastMentionID)
	if err != nil {
		// Fall back to the bare trailing window.
		p.logger.Error("load mention cursor failed", "error", err)
		sinceID = ""
	}

	mentions, err := p.mentions.RecentMentions(ctx, platform.MentionQuery{
		UserID:  p.cfg.AccountID,
		Since:   time.Now().UTC().Add(-p.cfg.PollWindow),
		SinceID: sinceID,
	})
	if err != nil {
		p.logger.Error("fetch mentions failed", "error", err)
		return stats
	}
	stats.MentionsFound = len(mentions)
	if len(mentions) == 0 {
		p.logger.Info("no mentions found")
		return stats
	}

	// Oldest first, so the batch cap defers the newest mentions; those
	// stay above the cursor and are re-fetched next run even after they
	// age out of the trailing window.
	sort.Slice(mentions, func(i, j int) bool {
		if mentions[i].CreatedAt.Equal(mentions[j].CreatedAt) {
			return lessPostID(mentions[i].ID, mentions[j].ID)
		}
		return mentions[i].CreatedAt.Before(mentions[j].CreatedAt)
	})
	candidates := mentions
	if len(candidates) > p.cfg.MaxRepliesPerRun {
		candidates = candidates[:p.cfg.MaxRepliesPerRun]
	}

	highWater := sinceID
	for _, mention := range candidates {
		switch p.processMention(ctx, mention) {
		case outcomeSucceeded:
			stats.RepliesSucceeded++
		case outcomeFailed:
			stats.RepliesFailed++
		}
		if lessPostID(highWater, mention.ID) {
			highWater = mention.ID
		}
	}

	if highWater != sinceID {
		if err := p.records.SaveCursor(ctx, store.CursorLastMentionID, highWater); err != nil {
			p.logger.Error("save mention cursor failed", "error", err, "cursor", highWater)
		}
	}

	p.logger.Info("mention pass finished",
		"mentions_found", stats.MentionsFound,
		"replies_succeeded", stats.RepliesSucceeded,
		"replies_failed", stats.RepliesFailed,
	)
	return stats
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeFailed
)

func (p *Pipeline) processMention(ctx context.Context, mention platform.Mention) outcome {
	root, ok := p.resolver.Resolve(ctx, mention)
	if !ok {
		return outcomeSkipped
	}
	if root.ID == mention.ID {
		p.logger.Info("skipping self-mention", "mention_id", mention.ID)
		return outcomeSkipped
	}

	alreadyReplied, err := p.guard.AlreadyReplied(ctx, root.ID)
	if err != nil {
		// Unknown state: skipping risks a missed reply, answering risks
		// a duplicate. Skip.
		p.logger.Error("duplicate check failed", "error", err, "root_post_id", root.ID)
		return outcomeSkipped
	}
	if alreadyReplied {
		p.logger.Info("root post already answered", "root_post_id", root.ID)
		return outcomeSkipped
	}

	replyText, err := p.generator.Generate(ctx, root.Text)
	if err != nil {
		p.logger.Error("reply generation failed", "error", err, "mention_id", mention.ID, "root_post_id", root.ID)
		return outcomeFailed
	}

	replyPostID, err := p.publisher.PostReply(ctx, replyText, mention.ID)
	if err != nil {
		p.logger.Error("reply publish failed", "error", err, "mention_id", mention.ID, "root_post_id", root.ID)
		return outcomeFailed
	}

	if err := p.records.AppendReplyRecord(ctx, store.ReplyRecord{
		SourcePostID:     root.ID,
		SourcePostText:   root.Text,
		ReplyPostID:      replyPostID,
		ReplyPostText:    replyText,
		RepliedAt:        time.Now().UTC(),
		MentionCreatedAt: mention.CreatedAt,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicateReplyRecord) {
			p.logger.Info("reply record already present", "root_post_id", root.ID)
		} else {
			// The reply exists on-platform with no local record. No
			// compensating delete; the inconsistency is logged and the
			// next duplicate check may answer this root again.
			p.logger.Error("reply published but record append failed",
				"error", err,
				"root_post_id", root.ID,
				"reply_post_id", replyPostID,
			)
		}
	}

	p.logger.Info("replied to mention",
		"mention_id", mention.ID,
		"root_post_id", root.ID,
		"reply_post_id", replyPostID,
	)
	return outcomeSucceeded
}

// lessPostID orders numeric string IDs without overflowing on
// snowflake-sized values. An empty ID sorts first.
func lessPostID(a, b string) bool {
	if a == b {
		return false
	}
	if a == "" {
		return true
	}
	if b == "" {
		return false
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
