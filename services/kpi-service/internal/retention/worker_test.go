package retention

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

type fakeStore struct {
	cutoffs []string
	pruned  int64
}

func (f *fakeStore) PruneBefore(_ context.Context, cutoff string) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.pruned, nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestSweepCutoff(t *testing.T) {
	store := &fakeStore{pruned: 3}
	w := NewWorker(store, slog.New(slog.NewTextHandler(discard{}, nil)), Config{KeepDays: 90})
	w.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	if err := w.sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(store.cutoffs) != 1 {
		t.Fatalf("expected one prune call, got %d", len(store.cutoffs))
	}
	if store.cutoffs[0] != "2024-03-03" {
		t.Fatalf("expected cutoff 2024-03-03, got %q", store.cutoffs[0])
	}
}

func TestSweepDisabledWithoutKeepDays(t *testing.T) {
	store := &fakeStore{}
	w := NewWorker(store, slog.New(slog.NewTextHandler(discard{}, nil)), Config{})

	if err := w.sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(store.cutoffs) != 0 {
		t.Fatalf("expected no prune calls, got %d", len(store.cutoffs))
	}
}
