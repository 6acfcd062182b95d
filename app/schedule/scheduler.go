package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/openchess/tourmap/app/pipeline"
)

// Runner is the pipeline entry point the scheduler drives.
type Runner interface {
	Execute(ctx context.Context) (string, error)
}

// Scheduler triggers a pipeline run on a fixed interval. It is optional:
// with interval zero the service only runs when triggered over HTTP.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	if s.interval <= 0 {
		slog.Debug("Scheduler disabled, runs are trigger-only")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("Scheduler started", "interval", s.interval.String())

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.trigger()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) trigger() {
	runID, err := s.runner.Execute(s.ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			slog.Warn("Skipping scheduled run, previous run still in progress")
			return
		}
		slog.Error("Scheduled run failed to start", "error", err)
		return
	}
	slog.Debug("Scheduled run finished", "run_id", runID)
}
