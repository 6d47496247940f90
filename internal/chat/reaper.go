package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSweepSchedule = "@every 1h"

// Sweeper is what the reaper runs on every tick.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Reaper evicts idle chat sessions on a cron schedule.
type Reaper struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	logger  *zap.Logger
}

func NewReaper(sweeper Sweeper, schedule string, logger *zap.Logger) (*Reaper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	r := &Reaper{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		timeout: time.Minute,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(schedule, r.runOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Reaper) Start() {
	r.cron.Start()
	r.logger.Info("session reaper started")
}

// Stop stops scheduling and waits for a running sweep, up to ctx.
func (r *Reaper) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("session reaper stop timed out")
	}
}

func (r *Reaper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	removed, err := r.sweeper.SweepExpired(ctx)
	if err != nil {
		r.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		r.logger.Info("expired chat sessions removed", zap.Int("count", removed))
	}
}
