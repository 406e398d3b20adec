package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicpulse/libs/db"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
)

// ScheduleRepository stores one JSON document per calendar date, the same
// shape the scheduling engine publishes:
//
//	schedules(id uuid pk, date text unique, doc jsonb, updated_at timestamptz)
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// GetByDate fetches the schedule document for an exact date string.
// A missing row is a normal outcome, not an error.
func (r *ScheduleRepository) GetByDate(ctx context.Context, date string) (model.Schedule, bool, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `
		SELECT doc
		FROM schedules
		WHERE date = $1
	`, date).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Schedule{}, false, nil
	}
	if err != nil {
		return model.Schedule{}, false, err
	}

	var s model.Schedule
	if err := json.Unmarshal(doc, &s); err != nil {
		return model.Schedule{}, false, fmt.Errorf("decode schedule %s: %w", date, err)
	}
	return s, true, nil
}

// Upsert validates the document and replaces whatever is stored for its
// date. Validation happens here, at the storage boundary, so the KPI layer
// never sees a half-formed document.
func (r *ScheduleRepository) Upsert(ctx context.Context, s model.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO schedules (id, date, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (date) DO UPDATE
		SET doc = EXCLUDED.doc,
			updated_at = now()
	`, uuid.NewString(), s.Date, doc)
	return err
}

// PruneBefore deletes schedules with a date strictly before cutoff.
// YYYY-MM-DD strings order lexicographically, so text comparison is exact.
func (r *ScheduleRepository) PruneBefore(ctx context.Context, cutoff string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM schedules
		WHERE date < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
