package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
)

// Store is the pruning half of the schedule repository.
type Store interface {
	PruneBefore(ctx context.Context, cutoff string) (int64, error)
}

// Worker periodically deletes schedule documents past the retention window.
// The dashboard only looks back a bounded number of days; anything older is
// dead weight in Postgres and the cache.
type Worker struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	keepDays int
	now      func() time.Time
}

type Config struct {
	Interval time.Duration
	KeepDays int
}

func NewWorker(store Store, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Worker{
		store:    store,
		logger:   logger,
		interval: cfg.Interval,
		keepDays: cfg.KeepDays,
		now:      time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.logger.Error("retention sweep failed", "err", err)
			}
		}
	}
}

func (w *Worker) sweep(ctx context.Context) error {
	if w.keepDays <= 0 {
		return nil
	}
	cutoff := w.now().UTC().AddDate(0, 0, -w.keepDays).Format(model.DateLayout)
	pruned, err := w.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if pruned > 0 {
		w.logger.Info("pruned old schedules", "before", cutoff, "count", pruned)
	}
	return nil
}
