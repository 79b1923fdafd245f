package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "storefront.notifications"
	ExchangeType = "fanout"

	dialAttempts = 5
)

// dialFunc is amqp.Dial, replaceable in tests.
type dialFunc func(url string) (*amqp.Connection, error)

// SetupConn dials the broker and declares the notification exchange. Failed
// dials are retried every retryDelay until the attempts run out or ctx ends.
func SetupConn(ctx context.Context, url string, retryDelay time.Duration, log *slog.Logger) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := dialWithRetry(ctx, amqp.Dial, url, retryDelay, log)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: declare %s: %w", ExchangeName, err)
	}

	return conn, ch, nil
}

func dialWithRetry(ctx context.Context, dial dialFunc, url string, retryDelay time.Duration, log *slog.Logger) (*amqp.Connection, error) {
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		var conn *amqp.Connection
		if conn, err = dial(url); err == nil {
			return conn, nil
		}
		log.Warn("rabbitmq dial failed", "attempt", attempt, "error", err)
		if attempt == dialAttempts {
			break
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("rabbitmq: dial canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("rabbitmq: unreachable after %d attempts: %w", dialAttempts, err)
}
