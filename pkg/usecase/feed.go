package usecase

import (
	"context"
	"fmt"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

// NotificationFeed relays notifications published by other storefront
// processes to a local notifier.
type NotificationFeed struct {
	sub domain.NotificationSubscriber
}

func NewNotificationFeed(sub domain.NotificationSubscriber) (*NotificationFeed, error) {
	if sub == nil {
		return nil, fmt.Errorf("notification feed: %w: subscriber", domain.ErrMissingDependency)
	}
	return &NotificationFeed{sub: sub}, nil
}

// Start forwards every received notification to out until ctx is done.
func (f *NotificationFeed) Start(ctx context.Context, out domain.Notifier) error {
	return f.sub.Subscribe(ctx, func(n domain.Notification) error {
		out.Notify(ctx, n)
		return nil
	})
}
