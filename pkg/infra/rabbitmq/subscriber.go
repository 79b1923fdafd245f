package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

type subscriber struct {
	ch  *amqp.Channel
	log *slog.Logger
}

// NewSubscriber creates a NotificationSubscriber bound to the fanout exchange.
func NewSubscriber(ch *amqp.Channel, log *slog.Logger) domain.NotificationSubscriber {
	return &subscriber{ch: ch, log: log}
}

func (s *subscriber) Subscribe(ctx context.Context, handler func(domain.Notification) error) error {
	// 1. Declare a temporary queue (exclusive to this consumer)
	q, err := s.ch.QueueDeclare(
		"",    // random name
		false, // non-durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("could not declare queue: %w", err)
	}

	// 2. Bind the queue to the exchange
	if err := s.ch.QueueBind(q.Name, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("could not bind queue: %w", err)
	}

	// 3. Start consuming
	msgs, err := s.ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("could not start consume: %w", err)
	}

	go s.consume(ctx, msgs, handler)
	return nil
}

func (s *subscriber) consume(ctx context.Context, msgs <-chan amqp.Delivery, handler func(domain.Notification) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			n, err := decodeNotification(d.Body)
			if err != nil {
				s.log.Warn("could not decode notification", "error", err)
				continue
			}
			if err := handler(n); err != nil {
				s.log.Warn("notification handler failed", "title", n.Title, "error", err)
			}
		}
	}
}

func decodeNotification(body []byte) (domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}
