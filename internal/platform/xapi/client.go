// Package xapi implements the platform.Client contract against the X
// API v2 using bearer-token authentication.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mentiond/mentiond/internal/platform"
)

const maxResponseBytes = 4 << 20

type Config struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.twitter.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (c *Client) Me(ctx context.Context) (platform.Account, error) {
	var response userResponse
	if err := c.get(ctx, "/2/users/me", nil, &response); err != nil {
		return platform.Account{}, err
	}
	if strings.TrimSpace(response.Data.ID) == "" {
		return platform.Account{}, fmt.Errorf("users/me returned no account")
	}
	return platform.Account{ID: response.Data.ID, Username: response.Data.Username}, nil
}

func (c *Client) RecentMentions(ctx context.Context, query platform.MentionQuery) ([]platform.Mention, error) {
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return nil, fmt.Errorf("mention query requires a user id")
	}
	params := url.Values{}
	params.Set("tweet.fields", "created_at,conversation_id,author_id")
	params.Set("expansions", "referenced_tweets.id")
	if !query.Since.IsZero() {
		params.Set("start_time", query.Since.UTC().Format(time.RFC3339))
	}
	if strings.TrimSpace(query.SinceID) != "" {
		params.Set("since_id", strings.TrimSpace(query.SinceID))
	}

	var response mentionsResponse
	if err := c.get(ctx, "/2/users/"+url.PathEscape(userID)+"/mentions", params, &response); err != nil {
		return nil, err
	}

	mentions := make([]platform.Mention, 0, len(response.Data))
	for _, tweet := range response.Data {
		createdAt, parseErr := time.Parse(time.RFC3339, tweet.CreatedAt)
		if parseErr != nil {
			createdAt = time.Time{}
		}
		mentions = append(mentions, platform.Mention{
			ID:                 tweet.ID,
			AuthorID:           tweet.AuthorID,
			Text:               tweet.Text,
			ConversationRootID: tweet.ConversationID,
			CreatedAt:          createdAt,
		})
	}
	return mentions, nil
}

func (c *Client) LookupPost(ctx context.Context, id string) (platform.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return platform.Post{}, platform.ErrNotFound
	}
	var response tweetResponse
	if err := c.get(ctx, "/2/tweets/"+url.PathEscape(id), nil, &response); err != nil {
		return platform.Post{}, err
	}
	if strings.TrimSpace(response.Data.ID) == "" {
		return platform.Post{}, platform.ErrNotFound
	}
	return platform.Post{ID: response.Data.ID, Text: response.Data.Text}, nil
}

func (c *Client) PostReply(ctx context.Context, text, inReplyToID string) (string, error) {
	payload := createTweetRequest{Text: text}
	payload.Reply.InReplyToTweetID = strings.TrimSpace(inReplyToID)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal create tweet request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.authorize(request)
	request.Header.Set("Content-Type", "application/json")

	var response tweetResponse
	if err := c.do(request, &response); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.Data.ID) == "" {
		return "", fmt.Errorf("create tweet returned no id")
	}
	return response.Data.ID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.authorize(request)
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if err := statusError(response.StatusCode); err != nil {
		c.logger.Error("platform request failed",
			"method", request.Method,
			"path", request.URL.Path,
			"status", response.StatusCode,
			"body", strings.TrimSpace(string(body)),
		)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode platform response: %w", err)
	}
	return nil
}

func (c *Client) authorize(request *http.Request) {
	if token := strings.TrimSpace(c.cfg.BearerToken); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

func statusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", platform.ErrUnauthorized, status)
	case status == http.StatusNotFound:
		return platform.ErrNotFound
	case status == http.StatusTooManyRequests:
		return platform.ErrRateLimited
	default:
		return fmt.Errorf("platform request failed with status %s", strconv.Itoa(status))
	}
}
