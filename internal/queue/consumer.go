package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StartBookingConsumer consumes booking.confirmed events and hands each one
// to handle, standing in for the notification/invoice subsystem. It runs a
// reconnect loop with capped backoff until ctx is canceled; a message that
// cannot be processed is rejected without requeue so a poison message never
// spins the consumer.
func StartBookingConsumer(ctx context.Context, url string, log *zap.Logger, handle func(BookingConfirmedEvent) error) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("booking consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
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

		if err := consumeLoop(ctx, conn, log, handle); err != nil {
			log.Warn("booking consume loop ended", zap.Error(err))
		}
		_ = conn.Close()
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log *zap.Logger, handle func(BookingConfirmedEvent) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(BookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			var ev BookingConfirmedEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				log.Warn("booking event unmarshal failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(ev); err != nil {
				log.Warn("booking event handling failed",
					zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// LogConfirmation is the default consumer callback: it records the confirmed
// booking in the structured log, where a real deployment would send the
// e-mail or generate the invoice.
func LogConfirmation(log *zap.Logger) func(BookingConfirmedEvent) error {
	return func(ev BookingConfirmedEvent) error {
		log.Info("booking confirmed",
			zap.Uint64("booking_id", ev.BookingID),
			zap.Uint64("user_id", ev.UserID),
			zap.Uint64("session_id", ev.SessionID),
			zap.String("title", ev.Title),
			zap.Strings("seats", ev.SeatLabels),
			zap.Int64("amount_paid_cents", ev.AmountPaidCents),
			zap.String("currency", ev.Currency),
			zap.String("confirmed_at", ev.ConfirmedAt))
		return nil
	}
}
