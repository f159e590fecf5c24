// Package notify carries debt payment reminders over AMQP. The publisher side
// runs in the API process, the consumer side in the reminder worker.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finwise/internal/core"
)

// reminderHour is the local wall-clock hour a payment reminder fires.
const reminderHour = 7

const publishTimeout = 5 * time.Second

type Publisher struct {
	url          string
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	now          func() time.Time
}

func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
	p := &Publisher{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		now:          time.Now,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	p.conn = conn
	p.channel = channel

	if err := p.setup(); err != nil {
		p.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key mirrors the queue name on the direct exchange.
	err = p.channel.QueueBind(p.queueName, p.queueName, p.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// reminderAt places the reminder at the configured hour on the morning of the
// payment date, in that date's location.
func reminderAt(payDate time.Time) time.Time {
	y, m, d := payDate.Date()
	return time.Date(y, m, d, reminderHour, 0, 0, 0, payDate.Location())
}

// ScheduleReminder publishes a schedule message for the debt's payment date.
// A reminder moment already in the past is skipped with a log line rather than
// an error, so recording a payment made earlier never fails.
func (p *Publisher) ScheduleReminder(ctx context.Context, d core.Debt) error {
	if d.PayDate == nil {
		slog.WarnContext(ctx, "Skipping reminder without a payment date", "debt_id", d.ID)
		return nil
	}
	fireAt := reminderAt(*d.PayDate)
	if fireAt.Before(p.now()) {
		slog.InfoContext(ctx, "Skipping reminder in the past",
			"debt_id", d.ID, "fire_at", fireAt)
		return nil
	}

	msg := NewScheduleMessage(d.UserID, d.ID, d.PersonName, core.FormatUSD(d.Amount), fireAt)
	if err := p.publish(ctx, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Scheduled payment reminder",
		"debt_id", d.ID, "user_id", d.UserID, "fire_at", fireAt)
	return nil
}

// CancelReminder publishes a cancel message for a debt that was paid or deleted.
func (p *Publisher) CancelReminder(ctx context.Context, userID, debtID int64) error {
	if err := p.publish(ctx, NewCancelMessage(userID, debtID)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Cancelled payment reminder", "debt_id", debtID, "user_id", userID)
	return nil
}

func (p *Publisher) publish(ctx context.Context, msg *ReminderMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err == nil {
		return nil
	}
	if !isConnectionError(err) {
		return fmt.Errorf("publish message: %w", err)
	}

	// One reconnect attempt before giving up; the caller treats reminder
	// failures as non-fatal anyway.
	slog.WarnContext(ctx, "Reconnecting after publish failure", "error", err)
	if rerr := p.connect(); rerr != nil {
		return fmt.Errorf("reconnect: %w", rerr)
	}
	err = p.channel.PublishWithContext(ctx, p.exchangeName, p.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish message after reconnect: %w", err)
	}
	return nil
}

// exponentialBackoff doubles the wait per attempt, capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Second << uint(attempt)
	if backoff > 30*time.Second || backoff <= 0 {
		return 30 * time.Second
	}
	return backoff
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Consume delivers reminder messages to handler with manual acknowledgement.
// Handler errors requeue the delivery; malformed payloads are dropped.
func (p *Publisher) Consume(ctx context.Context, handler func(*ReminderMessage) error) error {
	msgs, err := p.channel.Consume(
		p.queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming reminder messages", "queue", p.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ReminderMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err, "action", msg.Action, "debt_id", msg.DebtID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

// ConsumeWithRetry keeps Consume running across broker restarts, reconnecting
// with exponential backoff. Only context cancellation ends the loop.
func (p *Publisher) ConsumeWithRetry(ctx context.Context, handler func(*ReminderMessage) error) error {
	for attempt := 0; ; attempt++ {
		err := p.Consume(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Consumer stopped, retrying",
			"error", err, "attempt", attempt, "backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if rerr := p.connect(); rerr != nil {
			slog.ErrorContext(ctx, "Reconnect failed", "error", rerr)
			continue
		}
		attempt = -1 // successful reconnect resets the backoff
	}
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
