package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicpulse/libs/db"
)

// Repository deduplicates consumed events. Record returns false when the
// event id was already seen, which makes redelivered messages harmless.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return false, nil
	}

	return false, err
}

// Delete releases an event id after a failed handle so the redelivered
// message is not treated as a duplicate.
func (r *Repository) Delete(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM inbox_events
		WHERE event_id = $1
	`, eventID)
	return err
}
