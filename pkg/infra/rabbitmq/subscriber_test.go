package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

func TestSubscriber_Consume(t *testing.T) {
	s := &subscriber{log: discard}
	msgs := make(chan amqp.Delivery, 3)
	msgs <- amqp.Delivery{Body: []byte(`{"title":"Added to cart","severity":"info"}`)}
	msgs <- amqp.Delivery{Body: []byte(`not json`)}
	msgs <- amqp.Delivery{Body: []byte(`{"title":"Logged out","severity":"info"}`)}
	close(msgs)

	var got []string
	s.consume(context.Background(), msgs, func(n domain.Notification) error {
		got = append(got, n.Title)
		return errors.New("handler errors are logged, not fatal")
	})

	if len(got) != 2 || got[0] != "Added to cart" || got[1] != "Logged out" {
		t.Errorf("expected undecodable messages to be skipped, got %v", got)
	}
}

func TestSubscriber_ConsumeStopsOnCancel(t *testing.T) {
	s := &subscriber{log: discard}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.consume(ctx, make(chan amqp.Delivery), func(domain.Notification) error { return nil })
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume did not return after cancel")
	}
}
