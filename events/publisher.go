package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for booking lifecycle events. Downstream readers (analytics,
// notification workers) bind queues against these.
const (
	KeyBookingConfirmed = "booking.confirmed"
	KeyBookingReleased  = "booking.released"
	KeyBookingExpired   = "booking.expired"
)

type BookingEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	SlotID        uuid.UUID `json:"slot_id"`
	UserID        uuid.UUID `json:"user_id"`
	CourseID      uuid.UUID `json:"course_id"`
	Type          string    `json:"enrollment_type"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, event BookingEvent) error
	Close() error
}

type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, event BookingEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher is used when AMQP is not configured and in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, key string, event BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                                      { return nil }
