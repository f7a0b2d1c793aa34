// Package scheduler refreshes the UV feed on a fixed interval so requests
// rarely pay for an upstream fetch.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/observability"
)

// Refresher forces a feed refresh. *feed.Cache implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Warmer runs Refresh on a gocron schedule. The first run happens at Start.
type Warmer struct {
	scheduler *gocron.Scheduler
	feed      Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewWarmer returns a Warmer. timeout bounds each refresh.
func NewWarmer(feed Refresher, interval, timeout time.Duration, logger *zap.Logger) (*Warmer, error) {
	if interval <= 0 {
		return nil, errors.New("warm interval must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{
		scheduler: gocron.NewScheduler(time.UTC),
		feed:      feed,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Start schedules the job and starts the scheduler in the background.
func (w *Warmer) Start() error {
	if _, err := w.scheduler.Every(w.interval).SingletonMode().Do(w.run); err != nil {
		return err
	}
	w.scheduler.StartAsync()
	w.logger.Info("feed warming scheduled", zap.Duration("interval", w.interval))
	return nil
}

// Stop stops the scheduler. A refresh already running is not interrupted.
func (w *Warmer) Stop() {
	w.scheduler.Stop()
}

func (w *Warmer) run() {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := w.feed.Refresh(ctx); err != nil {
		observability.FeedWarmingTotal.WithLabelValues("error").Inc()
		w.logger.Warn("feed warming failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	observability.FeedWarmingTotal.WithLabelValues("success").Inc()
	w.logger.Debug("feed warmed", zap.Duration("duration", time.Since(start)))
}
