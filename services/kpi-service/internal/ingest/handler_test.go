package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/model"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	upserts []model.Schedule
	err     error
}

func (f *fakeWriter) Upsert(_ context.Context, s model.Schedule) error {
	f.upserts = append(f.upserts, s)
	return f.err
}

type fakeInvalidator struct {
	dates []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, date string) {
	f.dates = append(f.dates, date)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

func TestScheduleHandler_UpsertsAndInvalidates(t *testing.T) {
	store := &fakeWriter{}
	inv := &fakeInvalidator{}
	handle := NewScheduleHandler(store, inv, testLogger())

	msg := kafka.Message{Value: []byte(`{"schedule":{"date":"2024-01-10","patients":[],"nurses":[]}}`)}
	if err := handle(context.Background(), msg); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(store.upserts) != 1 || store.upserts[0].Date != "2024-01-10" {
		t.Fatalf("unexpected upserts: %+v", store.upserts)
	}
	if len(inv.dates) != 1 || inv.dates[0] != "2024-01-10" {
		t.Fatalf("expected cache invalidation for 2024-01-10, got %v", inv.dates)
	}
}

func TestScheduleHandler_DropsMalformedPayload(t *testing.T) {
	store := &fakeWriter{}
	handle := NewScheduleHandler(store, nil, testLogger())

	msg := kafka.Message{Value: []byte(`{not json`)}
	if err := handle(context.Background(), msg); err != nil {
		t.Fatalf("malformed payload must be dropped, got error: %v", err)
	}
	if len(store.upserts) != 0 {
		t.Fatalf("malformed payload must not reach the store, got %+v", store.upserts)
	}
}

func TestScheduleHandler_DropsInvalidDocument(t *testing.T) {
	store := &fakeWriter{err: fmt.Errorf("%w: date is required", model.ErrInvalidSchedule)}
	inv := &fakeInvalidator{}
	handle := NewScheduleHandler(store, inv, testLogger())

	msg := kafka.Message{Value: []byte(`{"schedule":{"date":""}}`)}
	if err := handle(context.Background(), msg); err != nil {
		t.Fatalf("invalid document must be dropped, got error: %v", err)
	}
	if len(inv.dates) != 0 {
		t.Fatalf("invalid document must not invalidate the cache, got %v", inv.dates)
	}
}

func TestScheduleHandler_PropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &fakeWriter{err: storeErr}
	inv := &fakeInvalidator{}
	handle := NewScheduleHandler(store, inv, testLogger())

	msg := kafka.Message{Value: []byte(`{"schedule":{"date":"2024-01-10"}}`)}
	if err := handle(context.Background(), msg); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if len(inv.dates) != 0 {
		t.Fatalf("failed upsert must not invalidate the cache, got %v", inv.dates)
	}
}

func TestScheduleHandler_NilCache(t *testing.T) {
	store := &fakeWriter{}
	handle := NewScheduleHandler(store, nil, testLogger())

	msg := kafka.Message{Value: []byte(`{"schedule":{"date":"2024-01-10"}}`)}
	if err := handle(context.Background(), msg); err != nil {
		t.Fatalf("handle failed without a cache: %v", err)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(store.upserts))
	}
}
