// Package queue contains the background consumer that listens to the
// ticket.confirmed queue and dispatches confirmation emails, adapted
// from a booking-confirmed consumer (which wrote to a log file) to
// instead drive the mailer package's SMTP sender.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const ticketQueueName = "ticket.confirmed"

// Mailer renders and sends the confirmation email for a ticket event.
// Implemented by internal/mailer.Sender; kept as an interface here so
// the consumer stays independent of SMTP wiring.
type Mailer interface {
	SendConfirmation(ctx context.Context, ev TicketConfirmedEvent) error
}

// Consumer drains ticket.confirmed deliveries and hands each to a Mailer.
type Consumer struct {
	URL    string
	Mailer Mailer
}

// NewConsumer constructs a Consumer against the given AMQP URL.
func NewConsumer(url string, mailer Mailer) *Consumer {
	return &Consumer{URL: url, Mailer: mailer}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled,
// reconnecting with exponential backoff on connection loss — the same
// shape as StartBookingConsumer's reconnect loop.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("ticket-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ticket-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
		_ = conn.Close()
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("ticket-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(ticketQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ticketQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				log.Printf("ticket-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev TicketConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// Email failures are logged here and never requeue the message;
	// best-effort only.
	if err := c.Mailer.SendConfirmation(ctx, ev); err != nil {
		log.Printf("ticket-consumer: send confirmation failed for %s: %v", ev.BookingCode, err)
	}
	return nil
}
