// Package platform defines the messaging-platform boundary: the domain
// types the pipeline works with and the client contract every concrete
// platform adapter must satisfy.
package platform

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrUnauthorized = errors.New("platform rejected credentials")
	ErrRateLimited  = errors.New("platform rate limit exhausted")
)

// Mention is one incoming notification that the controlled account was
// referenced. Mentions are sourced fresh each run and never persisted;
// the platform remains the source of truth.
type Mention struct {
	ID                 string
	AuthorID           string
	Text               string
	ConversationRootID string
	CreatedAt          time.Time
}

// Post is the root post a mention replies to.
type Post struct {
	ID   string
	Text string
}

// Account identifies the authenticated controlled account.
type Account struct {
	ID       string
	Username string
}

// MentionQuery bounds a mention fetch. Since is the trailing-window
// start; SinceID, when set, excludes mentions at or before that ID so
// deferred mentions are not lost when they age out of the window.
type MentionQuery struct {
	UserID  string
	Since   time.Time
	SinceID string
}

type Client interface {
	Me(ctx context.Context) (Account, error)
	RecentMentions(ctx context.Context, query MentionQuery) ([]Mention, error)
	LookupPost(ctx context.Context, id string) (Post, error)
	PostReply(ctx context.Context, text, inReplyToID string) (string, error)
}
