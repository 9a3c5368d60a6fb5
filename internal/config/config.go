package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Environment string
	DataDir     string
	DBPath      string
	HTTPAddr    string

	PlatformBearerToken string
	PlatformAPIBase     string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAITimeoutSec int

	PersonaPrompt     string
	PersonaPromptFile string
	MaxReplyChars     int

	PollWindowMinutes  int
	MaxRepliesPerRun   int
	RunIntervalMinutes int
	RunCronExpr        string

	HeartbeatEnabled  bool
	HeartbeatStaleSec int
}

func FromEnv() Config {
	dataDir := stringOrDefault("MENTIOND_DATA_DIR", "data")
	dbPath := stringOrDefault("MENTIOND_DB_PATH", filepath.Join(dataDir, "mentiond.sqlite"))

	return Config{
		Environment: stringOrDefault("MENTIOND_ENV", "development"),
		DataDir:     dataDir,
		DBPath:      dbPath,
		HTTPAddr:    stringOrDefault("MENTIOND_HTTP_ADDR", ":8080"),

		PlatformBearerToken: strings.TrimSpace(os.Getenv("MENTIOND_PLATFORM_BEARER_TOKEN")),
		PlatformAPIBase:     stringOrDefault("MENTIOND_PLATFORM_API_BASE", "https://api.twitter.com"),

		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("MENTIOND_OPENAI_API_KEY")),
		OpenAIBaseURL:    stringOrDefault("MENTIOND_OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      stringOrDefault("MENTIOND_OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeoutSec: intOrDefault("MENTIOND_OPENAI_TIMEOUT_SECONDS", 60),

		PersonaPrompt:     strings.TrimSpace(os.Getenv("MENTIOND_PERSONA_PROMPT")),
		PersonaPromptFile: strings.TrimSpace(os.Getenv("MENTIOND_PERSONA_PROMPT_FILE")),
		MaxReplyChars:     intOrDefault("MENTIOND_MAX_REPLY_CHARS", 200),

		PollWindowMinutes:  intOrDefault("MENTIOND_POLL_WINDOW_MINUTES", 20),
		MaxRepliesPerRun:   intOrDefault("MENTIOND_MAX_REPLIES_PER_RUN", 10),
		RunIntervalMinutes: intOrDefault("MENTIOND_RUN_INTERVAL_MINUTES", 6),
		RunCronExpr:        strings.TrimSpace(os.Getenv("MENTIOND_RUN_CRON")),

		HeartbeatEnabled:  boolOrDefault("MENTIOND_HEARTBEAT_ENABLED", true),
		HeartbeatStaleSec: intOrDefault("MENTIOND_HEARTBEAT_STALE_SECONDS", 900),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
