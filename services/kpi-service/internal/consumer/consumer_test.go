package consumer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeInbox struct {
	seen      map[string]bool
	recordErr error

	deleted []string
}

func (f *fakeInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	if f.recordErr != nil {
		return false, f.recordErr
	}
	if f.seen[eventID] {
		return false, nil
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeInbox) Delete(_ context.Context, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	delete(f.seen, eventID)
	return nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestConsumer(inbox Inbox, handler Handler) *Consumer {
	return &Consumer{
		logger:  slog.New(slog.NewTextHandler(discard{}, nil)),
		inbox:   inbox,
		handler: handler,
	}
}

func msgWithID(id string) kafka.Message {
	return kafka.Message{
		Topic:   "scheduling.schedule.updated.v1",
		Key:     []byte(id),
		Headers: []kafka.Header{{Key: "event_id", Value: []byte(id)}},
	}
}

func TestProcessCommitsHandledMessage(t *testing.T) {
	handled := 0
	c := newTestConsumer(&fakeInbox{}, func(context.Context, kafka.Message) error {
		handled++
		return nil
	})

	if !c.process(context.Background(), msgWithID("evt-1")) {
		t.Fatal("handled message must be committed")
	}
	if handled != 1 {
		t.Fatalf("expected one handler call, got %d", handled)
	}
}

func TestProcessSkipsDuplicate(t *testing.T) {
	handled := 0
	inbox := &fakeInbox{}
	c := newTestConsumer(inbox, func(context.Context, kafka.Message) error {
		handled++
		return nil
	})

	msg := msgWithID("evt-1")
	if !c.process(context.Background(), msg) {
		t.Fatal("first delivery must be committed")
	}
	if !c.process(context.Background(), msg) {
		t.Fatal("duplicate must be committed without reprocessing")
	}
	if handled != 1 {
		t.Fatalf("duplicate reached the handler, %d calls", handled)
	}
}

func TestProcessReleasesInboxOnHandlerError(t *testing.T) {
	inbox := &fakeInbox{}
	attempts := 0
	c := newTestConsumer(inbox, func(context.Context, kafka.Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("connection refused")
		}
		return nil
	})

	msg := msgWithID("evt-1")
	if c.process(context.Background(), msg) {
		t.Fatal("failed message must not be committed")
	}
	if len(inbox.deleted) != 1 || inbox.deleted[0] != "evt-1" {
		t.Fatalf("expected inbox release for evt-1, got %v", inbox.deleted)
	}

	// Redelivery is processed again, not treated as a duplicate.
	if !c.process(context.Background(), msg) {
		t.Fatal("redelivery after release must be committed")
	}
	if attempts != 2 {
		t.Fatalf("expected two handler attempts, got %d", attempts)
	}
}

func TestProcessHoldsMessageOnInboxError(t *testing.T) {
	c := newTestConsumer(&fakeInbox{recordErr: errors.New("connection refused")}, func(context.Context, kafka.Message) error {
		t.Fatal("handler must not run when dedup fails")
		return nil
	})

	if c.process(context.Background(), msgWithID("evt-1")) {
		t.Fatal("message must not be committed when the inbox is unavailable")
	}
}
