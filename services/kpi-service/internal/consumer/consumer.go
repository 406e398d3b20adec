package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox deduplicates events by id. Record reports false for an id that was
// already seen; Delete releases an id so a redelivery can be processed again.
type Inbox interface {
	Record(ctx context.Context, eventID string, eventType string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Consumer reads one topic in a group, deduplicates through the inbox, and
// hands each new message to the handler. Offsets are committed only after a
// message is fully handled (or recognized as a duplicate); a handler error
// releases the inbox entry and leaves the offset uncommitted, so the event
// is processed again on redelivery.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	inbox   Inbox
	handler Handler
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		if !c.process(ctx, msg) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("kafka commit error", "err", err)
		}
	}
}

// process runs one message through dedup and the handler. It reports whether
// the message's offset may be committed.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)

	ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err)
		span.RecordError(err)
		return false
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return true
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		if delErr := c.inbox.Delete(ctxSpan, meta.EventID); delErr != nil {
			c.logger.Error("inbox release failed", "err", delErr, "event_id", meta.EventID)
		}
		return false
	}
	return true
}
