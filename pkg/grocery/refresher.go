package grocery

import (
	"context"
	"log/slog"
	"time"
)

// Refresher calls OrderStore.Refresh on a fixed interval so status events are
// pushed without a customer asking for them.
type Refresher struct {
	store    *OrderStore
	interval time.Duration
	logger   *slog.Logger
}

func NewRefresher(store *OrderStore, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{store: store, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("order_refresher_started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("order_refresher_stopped")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	changes, err := r.store.Refresh(ctx)
	if err != nil {
		r.logger.Warn("order_refresh_failed", "error", err)
		return
	}
	if len(changes) > 0 {
		r.logger.Debug("order_refresh_applied", "transitions", len(changes))
	}
}
