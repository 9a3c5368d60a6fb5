package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mentiond/mentiond/internal/config"
	"github.com/mentiond/mentiond/internal/heartbeat"
	"github.com/mentiond/mentiond/internal/httpapi"
	"github.com/mentiond/mentiond/internal/llm/openai"
	"github.com/mentiond/mentiond/internal/persona"
	"github.com/mentiond/mentiond/internal/pipeline"
	"github.com/mentiond/mentiond/internal/platform"
	"github.com/mentiond/mentiond/internal/platform/xapi"
	"github.com/mentiond/mentiond/internal/scheduler"
	"github.com/mentiond/mentiond/internal/store"
)

type Runtime struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *store.Store
	platform   platform.Client
	generator  *openai.Client
	persona    *persona.Loader
	heartbeat  *heartbeat.Registry
	httpServer *http.Server
}

func New(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg.PlatformBearerToken == "" {
		return nil, fmt.Errorf("platform bearer token is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	sqlStore, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqlStore.AutoMigrate(context.Background()); err != nil {
		sqlStore.Close()
		return nil, err
	}

	personaLoader, err := persona.New(cfg.PersonaPrompt, cfg.PersonaPromptFile, logger.With("component", "persona"))
	if err != nil {
		sqlStore.Close()
		return nil, err
	}

	platformClient := xapi.New(xapi.Config{
		BearerToken: cfg.PlatformBearerToken,
		BaseURL:     cfg.PlatformAPIBase,
	}, logger.With("component", "platform"))

	generator := openai.New(openai.Config{
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.OpenAIModel,
		Timeout:       time.Duration(cfg.OpenAITimeoutSec) * time.Second,
		MaxReplyChars: cfg.MaxReplyChars,
	}, personaLoader, logger.With("component", "llm"))

	registry := heartbeat.NewRegistry()

	runtime := &Runtime{
		cfg:       cfg,
		logger:    logger,
		store:     sqlStore,
		platform:  platformClient,
		generator: generator,
		persona:   personaLoader,
		heartbeat: registry,
	}
	runtime.httpServer = &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Dependencies{
			Config:    cfg,
			Store:     sqlStore,
			Heartbeat: registry,
			Logger:    logger.With("component", "httpapi"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return runtime, nil
}

// buildScheduler authenticates against the platform and assembles the
// pipeline for the resolved account. A failed identity lookup is fatal:
// nothing may run without verified credentials.
func (r *Runtime) buildScheduler(ctx context.Context) (*scheduler.Service, error) {
	account, err := r.platform.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve controlled account: %w", err)
	}
	r.logger.Info("authenticated against platform", "account_id", account.ID, "username", account.Username)

	logger := r.logger.With("component", "pipeline")
	mentionPipeline := pipeline.New(
		pipeline.Config{
			AccountID:        account.ID,
			PollWindow:       time.Duration(r.cfg.PollWindowMinutes) * time.Minute,
			MaxRepliesPerRun: r.cfg.MaxRepliesPerRun,
		},
		r.platform,
		pipeline.NewConversationResolver(r.platform, logger),
		pipeline.NewDuplicateGuard(r.store),
		r.generator,
		r.platform,
		r.store,
		logger,
	)

	service, err := scheduler.New(
		mentionPipeline,
		r.store,
		time.Duration(r.cfg.RunIntervalMinutes)*time.Minute,
		r.cfg.RunCronExpr,
		r.logger.With("component", "scheduler"),
	)
	if err != nil {
		return nil, err
	}
	if r.cfg.HeartbeatEnabled {
		service.SetHeartbeatReporter(r.heartbeat)
	}
	return service, nil
}

// RunOnce executes a single pipeline pass outside the scheduler loop.
func (r *Runtime) RunOnce(ctx context.Context) (pipeline.RunStats, error) {
	service, err := r.buildScheduler(ctx)
	if err != nil {
		return pipeline.RunStats{}, err
	}
	stats, _ := service.RunOnce(ctx)
	return stats, nil
}

func (r *Runtime) Store() *store.Store {
	return r.store
}

func (r *Runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
