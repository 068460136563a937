// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"star-burger/internal/model"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event describes something that happened to an order.
type Event struct {
	Type         string           `json:"type"`
	OrderID      uuid.UUID        `json:"orderId"`
	Status       model.Status     `json:"status"`
	RestaurantID *int64           `json:"restaurantId,omitempty"`
	Total        *decimal.Decimal `json:"total,omitempty"`
	OccurredAt   time.Time        `json:"occurredAt"`
}

// OrderCreated builds the event emitted after an order is stored.
func OrderCreated(order *model.Order, total decimal.Decimal) Event {
	return Event{
		Type:       TypeOrderCreated,
		OrderID:    order.ID,
		Status:     order.Status,
		Total:      &total,
		OccurredAt: order.RegisteredAt,
	}
}

// StatusChanged builds the event emitted after a status or restaurant change.
func StatusChanged(order *model.Order) Event {
	return Event{
		Type:         TypeOrderStatusChanged,
		OrderID:      order.ID,
		Status:       order.Status,
		RestaurantID: order.RestaurantID,
		OccurredAt:   order.UpdatedAt,
	}
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

const batchTimeout = 10 * time.Millisecond

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by order ID.
type KafkaPublisher struct {
	Writer MessageWriter
	logger zerolog.Logger
}

// NewKafkaWriter creates a writer for topic on brokers. Events are written
// one at a time, so the batch is flushed almost immediately.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
		BatchTimeout:           batchTimeout,
	}
}

// NewKafkaPublisher wraps writer.
func NewKafkaPublisher(writer MessageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		Writer: writer,
		logger: logger.With().Str("component", "kafka-publisher").Logger(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug().
		Str("type", event.Type).
		Str("order_id", event.OrderID.String()).
		Msg("event published")

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
