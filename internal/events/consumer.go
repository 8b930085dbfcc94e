package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/KaivDev4434/FairShare/internal/metrics"
	"github.com/KaivDev4434/FairShare/internal/notification"
)

// Notifier is the part of the notification service the consumer drives.
type Notifier interface {
	NotifyBillLocked(ctx context.Context, recipient, billTitle, amount, billID string) (*notification.Notification, error)
}

// Ensure the notification service satisfies Notifier
var _ Notifier = (*notification.Service)(nil)

// Consumer reads bill events from the broker and fans bill.locked events out
// into one notification per participant.
type Consumer struct {
	reader   *kafka.Reader
	notifier Notifier
	stopCh   chan struct{}
}

// NewConsumer creates a consumer reading from the given brokers and topic.
func NewConsumer(brokers []string, topic, groupID string, notifier Notifier) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &Consumer{
		reader:   reader,
		notifier: notifier,
		stopCh:   make(chan struct{}),
	}
}

// Start begins consuming events. It blocks until the context is canceled or
// Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting event consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			slog.Info("event consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("failed to read message", "error", err)
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *Consumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Error("failed to unmarshal event", "error", err)
		return
	}

	switch event.Type {
	case TypeBillLocked:
		c.handleBillLocked(ctx, &event)
	default:
		slog.Debug("ignoring event", "event_type", event.Type)
	}
}

// handleBillLocked writes one notification per participant so everyone on the
// bill learns their final share.
func (c *Consumer) handleBillLocked(ctx context.Context, event *Event) {
	var data BillLockedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		slog.Error("failed to unmarshal bill.locked payload",
			"bill_id", event.BillID,
			"error", err)
		return
	}

	for _, total := range data.Totals {
		if _, err := c.notifier.NotifyBillLocked(ctx, total.Name, data.Title, total.GrandTotal, event.BillID); err != nil {
			slog.Error("failed to create notification",
				"bill_id", event.BillID,
				"recipient", total.Name,
				"error", err)
		}
	}

	metrics.EventsConsumed.WithLabelValues(string(event.Type)).Inc()
	slog.Info("bill locked notifications created",
		"bill_id", event.BillID,
		"count", len(data.Totals))
}
