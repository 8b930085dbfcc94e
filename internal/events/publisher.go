// Package events publishes bill lifecycle events to a Kafka topic and
// consumes them to fan out notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/KaivDev4434/FairShare/internal/metrics"
)

// Type identifies the kind of bill event.
type Type string

const (
	TypeBillCreated       Type = "bill.created"
	TypeBillLocked        Type = "bill.locked"
	TypeBillUnlocked      Type = "bill.unlocked"
	TypeBillDeleted       Type = "bill.deleted"
	TypeClaimUpdated      Type = "claim.updated"
	TypeDocumentExtracted Type = "document.extracted"
)

// Event is the envelope written to the broker.
type Event struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	BillID    string          `json:"bill_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// BillLockedData is the payload carried by bill.locked events. It holds the
// final per-person totals so consumers can notify participants without
// re-reading the bill.
type BillLockedData struct {
	Title  string            `json:"title"`
	Totals []PersonTotalData `json:"totals"`
}

// PersonTotalData is one participant's final amount inside BillLockedData.
type PersonTotalData struct {
	Name            string `json:"name"`
	GrandTotalCents int64  `json:"grand_total_cents"`
	GrandTotal      string `json:"grand_total"`
}

// ClaimUpdatedData is the payload carried by claim.updated events. A portion
// of "0" means the claim was removed.
type ClaimUpdatedData struct {
	ShareID string `json:"share_id"`
	ItemID  string `json:"item_id"`
	Portion string `json:"portion"`
}

// DocumentExtractedData is the payload carried by document.extracted events
type DocumentExtractedData struct {
	Merchant   string `json:"merchant,omitempty"`
	ItemsAdded int    `json:"items_added"`
}

// Publisher emits bill events. Implementations must be safe for concurrent
// use by multiple goroutines.
type Publisher interface {
	Publish(ctx context.Context, eventType Type, billID string, payload interface{}) error
	Close() error
}

// Ensure both implementations satisfy Publisher
var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*NoopPublisher)(nil)
)

// KafkaPublisher publishes bill events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{writer: writer}
}

// Publish marshals the payload and writes one message keyed by bill ID, so
// events for the same bill stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType Type, billID string, payload interface{}) error {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload: %w", err)
		}
		data = encoded
	}

	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		BillID:    billID,
		Data:      data,
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(billID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("failed to publish event",
			"event_type", eventType,
			"bill_id", billID,
			"error", err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(string(eventType)).Inc()
	slog.Debug("event published", "event_type", eventType, "bill_id", billID)

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType Type, billID string, payload interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
