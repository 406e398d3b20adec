package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "kpi:schedule:"

// Store is the lookup the cache sits in front of.
type Store interface {
	GetByDate(ctx context.Context, date string) (model.Schedule, bool, error)
}

// ScheduleCache is a read-through Redis layer over the repository. Cache
// failures fall back to the underlying store: a broken cache slows requests
// down but never fails them. Misses are not cached.
type ScheduleCache struct {
	rdb    *redis.Client
	next   Store
	ttl    time.Duration
	logger *slog.Logger
}

func New(rdb *redis.Client, next Store, ttl time.Duration, logger *slog.Logger) *ScheduleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScheduleCache{
		rdb:    rdb,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ScheduleCache) GetByDate(ctx context.Context, date string) (model.Schedule, bool, error) {
	key := keyPrefix + date
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var s model.Schedule
		if jsonErr := json.Unmarshal(raw, &s); jsonErr == nil {
			return s, true, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = c.rdb.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("schedule cache read failed", "err", err, "date", date)
	}

	s, found, err := c.next.GetByDate(ctx, date)
	if err != nil || !found {
		return s, found, err
	}

	if raw, err := json.Marshal(s); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("schedule cache write failed", "err", err, "date", date)
		}
	}
	return s, true, nil
}

// Invalidate drops the cached document for a date after an ingest update.
func (c *ScheduleCache) Invalidate(ctx context.Context, date string) {
	if err := c.rdb.Del(ctx, keyPrefix+date).Err(); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("schedule cache invalidate failed", "err", err, "date", date)
	}
}
