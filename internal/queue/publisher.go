package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher holds a long-lived AMQP channel and publishes
// TicketConfirmedEvent messages to it, generalizing
// internal/service/queue_publisher.go's approach (which dialed a fresh
// connection per publish) into a reusable component constructed once at
// startup.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials url and declares the ticket.confirmed queue.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if _, err := ch.QueueDeclare(ticketQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

// PublishTicketConfirmed enqueues a TicketConfirmedEvent as a durable
// message. Errors are returned for the caller to log; a publish
// failure must never fail ticket issuance itself.
func (p *Publisher) PublishTicketConfirmed(ctx context.Context, event TicketConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return p.ch.PublishWithContext(ctx, "", ticketQueueName, false, false, pub)
}
