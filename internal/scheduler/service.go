// Package scheduler triggers the mention pipeline on a fixed interval
// or a cron expression. Exactly one run is in flight at any time: a
// trigger that fires while a run is still executing is skipped, never
// queued, so the pipeline's check-then-act duplicate guard is not
// exposed to overlapping runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/mentiond/mentiond/internal/heartbeat"
	"github.com/mentiond/mentiond/internal/pipeline"
	"github.com/mentiond/mentiond/internal/store"
)

type Runner interface {
	Run(ctx context.Context) pipeline.RunStats
}

type RunLog interface {
	RecordRun(ctx context.Context, run store.RunRecord) error
}

type Service struct {
	runner   Runner
	runLog   RunLog
	interval time.Duration
	schedule cron.Schedule
	logger   *slog.Logger
	reporter heartbeat.Reporter

	running sync.Mutex
}

// New builds a scheduler. A non-empty cron expression overrides the
// fixed interval.
func New(runner Runner, runLog RunLog, interval time.Duration, cronExpr string, logger *slog.Logger) (*Service, error) {
	if interval < time.Minute {
		interval = 6 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	service := &Service{
		runner:   runner,
		runLog:   runLog,
		interval: interval,
		logger:   logger,
	}
	if expr := strings.TrimSpace(cronExpr); expr != "" {
		schedule, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("parse run cron expression: %w", err)
		}
		service.schedule = schedule
	}
	return service, nil
}

func (s *Service) SetHeartbeatReporter(reporter heartbeat.Reporter) {
	s.reporter = reporter
}

func (s *Service) Start(ctx context.Context) error {
	if s.runner == nil {
		<-ctx.Done()
		return nil
	}
	if s.reporter != nil {
		s.reporter.Starting("scheduler", "started")
	}
	s.logger.Info("scheduler started", "interval", s.interval.String(), "cron", s.schedule != nil)

	for {
		if ctx.Err() != nil {
			break
		}
		stats, ran := s.RunOnce(ctx)
		if ran && s.reporter != nil {
			s.reporter.Beat("scheduler", fmt.Sprintf(
				"run completed: found=%d succeeded=%d failed=%d",
				stats.MentionsFound, stats.RepliesSucceeded, stats.RepliesFailed,
			))
		}

		timer := time.NewTimer(s.nextWait(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			if s.reporter != nil {
				s.reporter.Stopped("scheduler", "stopped")
			}
			s.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
	if s.reporter != nil {
		s.reporter.Stopped("scheduler", "stopped")
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce executes a single pipeline pass unless one is already in
// flight. The second return reports whether the run happened.
func (s *Service) RunOnce(ctx context.Context) (pipeline.RunStats, bool) {
	if !s.running.TryLock() {
		s.logger.Warn("previous run still in flight, skipping trigger")
		return pipeline.RunStats{}, false
	}
	defer s.running.Unlock()

	runID := "run-" + uuid.NewString()
	startedAt := time.Now().UTC()
	s.logger.Info("run starting", "run_id", runID)

	stats := s.runner.Run(ctx)
	finishedAt := time.Now().UTC()
	s.logger.Info("run finished",
		"run_id", runID,
		"duration", finishedAt.Sub(startedAt).String(),
		"mentions_found", stats.MentionsFound,
		"replies_succeeded", stats.RepliesSucceeded,
		"replies_failed", stats.RepliesFailed,
	)

	if s.runLog != nil {
		if err := s.runLog.RecordRun(ctx, store.RunRecord{
			ID:               runID,
			StartedAt:        startedAt,
			FinishedAt:       finishedAt,
			MentionsFound:    stats.MentionsFound,
			RepliesSucceeded: stats.RepliesSucceeded,
			RepliesFailed:    stats.RepliesFailed,
		}); err != nil {
			s.logger.Error("record run failed", "error", err, "run_id", runID)
		}
	}
	return stats, true
}

func (s *Service) nextWait(now time.Time) time.Duration {
	if s.schedule != nil {
		wait := s.schedule.Next(now).Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		return wait
	}
	return s.interval
}
