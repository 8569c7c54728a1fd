// Package events publishes booking lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joy095/travelmint/logger"
	"github.com/segmentio/kafka-go"
)

const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	PackageID  string    `json:"package_id"`
	OrderID    string    `json:"order_id,omitempty"`
	PaymentID  string    `json:"payment_id,omitempty"`
	TravelDate string    `json:"travel_date"`
	Persons    int       `json:"persons"`
	TotalPrice int64     `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is implemented by KafkaPublisher and NoopPublisher.
type Publisher interface {
	PublishBooking(ctx context.Context, event BookingEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// PublishBooking keys messages by booking id so one booking's events stay ordered.
func (p *KafkaPublisher) PublishBooking(ctx context.Context, event BookingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.BookingID),
		Value: data,
		Time:  event.OccurredAt,
	})
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to publish %s for booking %s to %s: %v", event.Type, event.BookingID, p.topic, err)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logger.InfoLogger.Infof("Published %s for booking %s to %s", event.Type, event.BookingID, p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBooking(context.Context, BookingEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }

// New returns a Kafka publisher, or a no-op one when brokers is empty.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		logger.InfoLogger.Info("KAFKA_BROKERS not set; booking events are not published")
		return NoopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
