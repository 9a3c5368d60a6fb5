// Package openai generates persona replies through an OpenAI-compatible
// chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mentiond/mentiond/internal/llm"
)

type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxReplyChars int
}

// PromptSource supplies the current persona/style system prompt. The
// persona loader implements it so prompt-file edits take effect without
// a restart.
type PromptSource interface {
	Prompt() string
}

type Client struct {
	cfg        Config
	persona    PromptSource
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, persona PromptSource, logger *slog.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxReplyChars <= 0 {
		cfg.MaxReplyChars = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		persona: persona,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (c *Client) Generate(ctx context.Context, sourceText string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" && requiresAPIKey(c.cfg.BaseURL) {
		return "", fmt.Errorf("%w: missing API key for %s", llm.ErrUnavailable, c.cfg.BaseURL)
	}
	sourceText = strings.TrimSpace(sourceText)
	if sourceText == "" {
		return "", fmt.Errorf("generate called with empty source text")
	}

	messages := []map[string]string{}
	systemPrompt := ""
	if c.persona != nil {
		systemPrompt = strings.TrimSpace(c.persona.Prompt())
	}
	if systemPrompt != "" {
		systemPrompt += "\n\n"
	}
	systemPrompt += fmt.Sprintf("Keep the reply under %d characters.", c.cfg.MaxReplyChars)
	messages = append(messages, map[string]string{
		"role":    "system",
		"content": systemPrompt,
	})
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": sourceText,
	})

	payload := map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if apiKey := strings.TrimSpace(c.cfg.APIKey); apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+apiKey)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		c.logger.Error("chat completion failed", "status", response.StatusCode, "body", strings.TrimSpace(string(responseBody)))
		return "", fmt.Errorf("chat completion failed with status %d", response.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(responseBody, &completion); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat response returned no choices")
	}

	content := sanitizeModelReply(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat response was empty after sanitizing")
	}
	return truncateRunes(content, c.cfg.MaxReplyChars), nil
}

var (
	thinkBlockPattern = regexp.MustCompile(`(?is)<think\b[^>]*>.*?</think>`)
	thinkFencePattern = regexp.MustCompile("(?is)```think\\s*.*?```")
)

func sanitizeModelReply(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	trimmed = thinkBlockPattern.ReplaceAllString(trimmed, "")
	trimmed = thinkFencePattern.ReplaceAllString(trimmed, "")
	trimmed = strings.ReplaceAll(trimmed, "<think>", "")
	trimmed = strings.ReplaceAll(trimmed, "</think>", "")
	return strings.TrimSpace(trimmed)
}

// truncateRunes enforces the character bound the platform counts in
// characters, not bytes.
func truncateRunes(input string, limit int) string {
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	return strings.TrimSpace(string(runes[:limit]))
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func requiresAPIKey(baseURL string) bool {
	lower := strings.ToLower(baseURL)
	if strings.Contains(lower, "localhost") || strings.Contains(lower, "127.0.0.1") || strings.Contains(lower, "ollama") {
		return false
	}
	return true
}
