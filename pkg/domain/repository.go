package domain

import "context"

// KeyValueStore is the durable string-keyed storage the managers hydrate from.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Authenticator verifies credentials and creates accounts.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	RegisterAccount(ctx context.Context, name, email, password string) (Identity, error)
}

// Catalog supplies restaurants and their menus.
type Catalog interface {
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (Restaurant, bool, error)
	ListMenuItems(ctx context.Context, restaurantID string) ([]MenuItem, error)
}

// OrderGateway accepts submissions and lists order history.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, draft OrderDraft) (Order, error)
	ListOrders(ctx context.Context, userID string) ([]Order, error)
}

// CatalogProvider is the remote API as a whole.
type CatalogProvider interface {
	Authenticator
	Catalog
	OrderGateway
}

// Notifier is a fire-and-forget user-facing message channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotificationSubscriber receives notifications published by another process.
type NotificationSubscriber interface {
	Subscribe(ctx context.Context, handler func(Notification) error) error
}

type IDGenerator interface {
	GenerateID() string
}
