package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sokoide/workshop/storefront/pkg/domain"
	"github.com/sokoide/workshop/storefront/pkg/infra/memory"
)

var errStore = errors.New("store unavailable")

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Title
	}
	return out
}

func (r *recordingNotifier) last() domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return domain.Notification{}
	}
	return r.sent[len(r.sent)-1]
}

// flakyStore is a memory store whose writes or reads can be made to fail.
type flakyStore struct {
	*memory.Store
	failGet bool
	failSet bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.NewStore()}
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, errStore
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errStore
	}
	return s.Store.Set(ctx, key, value)
}

type fakeAuth struct {
	mu       sync.Mutex
	calls    int
	identity domain.Identity
	err      error
	// release, when set, blocks calls until closed.
	release chan struct{}
	entered chan struct{}
}

func (f *fakeAuth) wait(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	release, entered := f.release, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release == nil {
		return nil
	}
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAuth) Authenticate(ctx context.Context, email, _ string) (domain.Identity, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Identity{}, err
	}
	if f.err != nil {
		return domain.Identity{}, f.err
	}
	id := f.identity
	if id.Email == "" {
		id.Email = email
	}
	return id, nil
}

func (f *fakeAuth) RegisterAccount(ctx context.Context, name, email, _ string) (domain.Identity, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Identity{}, err
	}
	if f.err != nil {
		return domain.Identity{}, f.err
	}
	return domain.Identity{ID: "user-new", Name: name, Email: email, Token: "tok-new"}, nil
}

func (f *fakeAuth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCatalog struct {
	mu          sync.Mutex
	listCalls   int
	menuCalls   int
	getCalls    int
	delay       time.Duration
	restaurants []domain.Restaurant
	menus       map[string][]domain.MenuItem
	err         error
}

func (f *fakeCatalog) pause(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCatalog) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Restaurant(nil), f.restaurants...), nil
}

func (f *fakeCatalog) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, bool, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	if err := f.pause(ctx); err != nil {
		return domain.Restaurant{}, false, err
	}
	for _, r := range f.restaurants {
		if r.ID == id {
			return r, true, nil
		}
	}
	return domain.Restaurant{}, false, nil
}

func (f *fakeCatalog) ListMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	f.mu.Lock()
	f.menuCalls++
	f.mu.Unlock()
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.MenuItem(nil), f.menus[restaurantID]...), nil
}

type fakeOrders struct {
	mu      sync.Mutex
	drafts  []domain.OrderDraft
	orders  []domain.Order
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeOrders) SubmitOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return domain.Order{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return domain.Order{
		ID:              "order-1",
		UserID:          draft.UserID,
		RestaurantID:    draft.RestaurantID,
		Items:           draft.Items,
		TotalAmount:     draft.TotalAmount,
		Status:          domain.OrderStatusPending,
		DeliveryAddress: draft.DeliveryAddress,
		CreatedAt:       time.Now(),
	}, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func item(id, restaurantID, name, price string) domain.MenuItem {
	return domain.MenuItem{
		ID:           id,
		Name:         name,
		Price:        decimal.RequireFromString(price),
		RestaurantID: restaurantID,
		Available:    true,
	}
}

var (
	butterChicken = item("101", "1", "Butter Chicken", "16.99")
	dalMakhani    = item("103", "1", "Dal Makhani", "15.99")
	vadaPav       = item("201", "2", "Vada Pav", "14.99")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
