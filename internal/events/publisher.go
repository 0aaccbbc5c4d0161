// Package events emits booking lifecycle notifications to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KeyBookingCommitted = "booking.committed"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingCompleted = "booking.completed"
)

// Publisher is the narrow surface the services depend on.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type BookingCommitted struct {
	BookingID    string    `json:"bookingId"`
	PaymentID    string    `json:"paymentId"`
	StudentID    string    `json:"studentId"`
	InstructorID string    `json:"instructorId"`
	SessionID    string    `json:"sessionId"`
	TimeSlot     time.Time `json:"timeSlot"`
	MeetingID    string    `json:"meetingId"`
}

type BookingCancelled struct {
	BookingID    string    `json:"bookingId"`
	StudentID    string    `json:"studentId"`
	InstructorID string    `json:"instructorId"`
	CancelledBy  string    `json:"cancelledBy"`
	Refund       int64     `json:"refund"`
	CancelledAt  time.Time `json:"cancelledAt"`
}

type BookingsCompleted struct {
	Count int64     `json:"count"`
	At    time.Time `json:"at"`
}

// RabbitPublisher owns one connection and one channel. amqp channels are not safe for
// concurrent publishes, so PublishJSON serialises on mu.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
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
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishJSON(context.Context, string, any) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Key     string
	Payload any
}

func (r *Recorder) PublishJSON(_ context.Context, key string, v any) error {
	r.mu.Lock()
	r.Events = append(r.Events, Recorded{Key: key, Payload: v})
	r.mu.Unlock()
	return nil
}

// Keys lists the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Key)
	}
	return out
}
