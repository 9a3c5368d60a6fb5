package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("mentiond starting",
		"addr", r.cfg.HTTPAddr,
		"run_interval_minutes", r.cfg.RunIntervalMinutes,
		"poll_window_minutes", r.cfg.PollWindowMinutes,
		"max_replies_per_run", r.cfg.MaxRepliesPerRun,
	)

	service, err := r.buildScheduler(ctx)
	if err != nil {
		return err
	}
	r.heartbeat.Beat("runtime", "runtime started")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return service.Start(groupCtx)
	})
	group.Go(func() error {
		return r.persona.Watch(groupCtx)
	})
	group.Go(func() error {
		err := r.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
