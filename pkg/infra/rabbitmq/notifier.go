package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type notifier struct {
	ch  publishChannel
	log *slog.Logger
}

// NewNotifier publishes each notification as JSON to the fanout exchange.
// Publish failures are logged and dropped.
func NewNotifier(ch *amqp.Channel, log *slog.Logger) domain.Notifier {
	return newNotifier(ch, log)
}

func newNotifier(ch publishChannel, log *slog.Logger) *notifier {
	return &notifier{ch: ch, log: log}
}

func (n *notifier) Notify(ctx context.Context, msg domain.Notification) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		n.log.Error("could not marshal notification", "title", msg.Title, "error", err)
		return
	}

	err = n.ch.PublishWithContext(ctx,
		ExchangeName, // exchange
		"",           // routing key, ignored by fanout
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   msg.Timestamp.UTC(),
			Type:        string(msg.Severity),
			Body:        body,
		},
	)
	if err != nil {
		n.log.Warn("could not publish notification", "title", msg.Title, "error", err)
	}
}
