package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// ScheduleWriter is the upsert half of the schedule repository.
type ScheduleWriter interface {
	Upsert(ctx context.Context, s model.Schedule) error
}

// CacheInvalidator drops a cached schedule after an update. Nil means no
// cache is configured.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, date string)
}

// NewScheduleHandler builds the per-message handler for schedule update
// events. Malformed payloads and documents that fail validation are logged
// and dropped; only transient store errors propagate, so the consumer holds
// the message for another attempt.
func NewScheduleHandler(store ScheduleWriter, cache CacheInvalidator, logger *slog.Logger) func(ctx context.Context, msg kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			Schedule model.Schedule `json:"schedule"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid schedule payload", "err", err)
			return nil
		}

		if err := store.Upsert(ctx, payload.Schedule); err != nil {
			if errors.Is(err, model.ErrInvalidSchedule) {
				logger.Error("rejected schedule document", "err", err, "date", payload.Schedule.Date)
				return nil
			}
			return err
		}

		if cache != nil {
			cache.Invalidate(ctx, payload.Schedule.Date)
		}
		logger.Info("schedule document updated",
			"date", payload.Schedule.Date,
			"patients", len(payload.Schedule.Patients),
			"nurses", len(payload.Schedule.Nurses),
		)
		return nil
	}
}
