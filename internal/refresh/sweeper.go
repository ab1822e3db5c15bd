// Package refresh runs the background staleness sweep: subscribed cache
// entries whose TTL has lapsed get re-fetched eagerly instead of waiting for
// the next read.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the cache-side hook the sweeper drives.
type Refresher interface {
	RefreshStale()
}

// Sweeper schedules periodic RefreshStale calls.
type Sweeper struct {
	cron     *cron.Cron
	interval time.Duration
	target   Refresher
	logger   *zap.Logger
}

// NewSweeper builds a sweeper ticking every interval.
func NewSweeper(target Refresher, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Sweeper{
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run sweeps until ctx ends.
func (s *Sweeper) Run(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.target.RefreshStale); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("staleness sweeper started", zap.Duration("interval", s.interval))

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}
