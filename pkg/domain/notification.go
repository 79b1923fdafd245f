package domain

import (
	"context"
	"time"
)

type Severity string

const (
	SeverityInfo        Severity = "info"
	SeverityDestructive Severity = "destructive"
)

// Action is an optional choice offered alongside a notification. Handler is
// process-local and never crosses a wire.
type Action struct {
	Label   string                          `json:"label"`
	Handler func(ctx context.Context) error `json:"-"`
}

// Notification is a user-facing message emitted as a side effect of a mutation.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Action      *Action   `json:"action,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (fn NotifierFunc) Notify(ctx context.Context, n Notification) {
	if fn != nil {
		fn(ctx, n)
	}
}

// Fanout forwards each notification to every non-nil notifier.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	for _, notifier := range f {
		if notifier == nil {
			continue
		}
		notifier.Notify(ctx, n)
	}
}
