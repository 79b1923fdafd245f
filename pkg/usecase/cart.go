package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

// Store keys owned by the cart manager.
const (
	CartKey           = "storefront.cart"
	CartRestaurantKey = "storefront.cart_restaurant"
)

// MaxLineQuantity caps a single line so quantities and totals never overflow.
const MaxLineQuantity = 9999

// CartManager owns the shopping cart: lines of a single restaurant, kept in
// memory and written through to the store on every mutation.
type CartManager struct {
	store    domain.KeyValueStore
	notifier domain.Notifier
	log      *slog.Logger

	mu   sync.Mutex
	cart domain.Cart
	subs subscribers[domain.Cart]
}

// NewCartManager hydrates a cart from store. Unreadable or inconsistent
// stored data is discarded and the cart starts empty.
func NewCartManager(ctx context.Context, store domain.KeyValueStore, notifier domain.Notifier, log *slog.Logger) (*CartManager, error) {
	if store == nil {
		return nil, fmt.Errorf("cart manager: %w: store", domain.ErrMissingDependency)
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if log == nil {
		log = discardLogger()
	}

	m := &CartManager{
		store:    store,
		notifier: notifier,
		log:      log.With("component", "cart"),
	}
	m.hydrate(ctx)
	return m, nil
}

func (m *CartManager) hydrate(ctx context.Context) {
	raw, ok, err := m.store.Get(ctx, CartKey)
	if err != nil {
		m.log.Warn("could not read stored cart, starting empty", "error", err)
		return
	}

	var lines []domain.CartLine
	if ok {
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			m.discard(ctx, "stored cart is not valid JSON", err)
			return
		}
		if err := validateLines(lines); err != nil {
			m.discard(ctx, "stored cart is inconsistent", err)
			return
		}
	}

	restaurantID, bound, err := m.store.Get(ctx, CartRestaurantKey)
	if err != nil {
		m.log.Warn("could not read stored cart restaurant, starting empty", "error", err)
		return
	}

	switch {
	case len(lines) == 0:
		if bound {
			m.log.Info("dropping restaurant binding of empty cart", "restaurant_id", restaurantID)
			if err := m.store.Remove(ctx, CartRestaurantKey); err != nil {
				m.log.Warn("could not remove stale cart restaurant", "error", err)
			}
		}
		return
	case bound && restaurantID != lines[0].Item.RestaurantID:
		m.discard(ctx, "stored cart restaurant does not match its lines", fmt.Errorf("bound to %q, lines from %q", restaurantID, lines[0].Item.RestaurantID))
		return
	case !bound:
		restaurantID = lines[0].Item.RestaurantID
		m.log.Info("restoring missing cart restaurant binding", "restaurant_id", restaurantID)
		if err := m.store.Set(ctx, CartRestaurantKey, restaurantID); err != nil {
			m.log.Warn("could not persist cart restaurant", "error", err)
		}
	}

	m.cart = domain.Cart{Lines: lines, RestaurantID: restaurantID}
	m.log.Debug("cart hydrated", "lines", len(lines), "restaurant_id", restaurantID)
}

func (m *CartManager) discard(ctx context.Context, reason string, cause error) {
	m.log.Warn(reason+", discarding", "error", cause)
	if err := m.store.Remove(ctx, CartKey); err != nil {
		m.log.Warn("could not remove stored cart", "error", err)
	}
	if err := m.store.Remove(ctx, CartRestaurantKey); err != nil {
		m.log.Warn("could not remove stored cart restaurant", "error", err)
	}
}

// validateLines checks the invariants a persisted line sequence must hold.
func validateLines(lines []domain.CartLine) error {
	seen := make(map[string]bool, len(lines))
	for i, l := range lines {
		if l.Item.ID == "" || l.Item.RestaurantID == "" {
			return fmt.Errorf("line %d: %w", i, domain.ErrInvalidItem)
		}
		if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			return fmt.Errorf("line %d: %w: %d", i, domain.ErrInvalidQuantity, l.Quantity)
		}
		if seen[l.Item.ID] {
			return fmt.Errorf("line %d: duplicate item %q", i, l.Item.ID)
		}
		if l.Item.RestaurantID != lines[0].Item.RestaurantID {
			return fmt.Errorf("line %d: %w", i, domain.ErrRestaurantConflict)
		}
		seen[l.Item.ID] = true
	}
	return nil
}

// AddItem adds quantity of item. If the cart already holds items of another
// restaurant nothing changes: a *domain.RestaurantConflictError is returned
// and the user is offered ReplaceWith through the notification action.
func (m *CartManager) AddItem(ctx context.Context, item domain.MenuItem, quantity int) error {
	if err := checkAdd(item, quantity); err != nil {
		return err
	}

	m.mu.Lock()
	if !m.cart.IsEmpty() && m.cart.RestaurantID != item.RestaurantID {
		conflict := &domain.RestaurantConflictError{Item: item, Quantity: quantity, CartRestaurantID: m.cart.RestaurantID}
		m.mu.Unlock()

		m.notifier.Notify(ctx, domain.Notification{
			Title:       "Different restaurant",
			Description: "Your cart contains items from another restaurant. Would you like to clear your cart?",
			Severity:    domain.SeverityDestructive,
			Action: &domain.Action{
				Label: "Clear cart",
				Handler: func(ctx context.Context) error {
					return m.ReplaceWith(ctx, item, quantity)
				},
			},
		})
		return conflict
	}
	if err := m.addLocked(item, quantity); err != nil {
		m.mu.Unlock()
		return err
	}
	snapshot, err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.announceAdd(ctx, item, quantity)
	m.subs.publish(snapshot)
	return err
}

// ReplaceWith discards the current cart and adds item in one step. It is the
// "discard and retry" answer to a restaurant conflict.
func (m *CartManager) ReplaceWith(ctx context.Context, item domain.MenuItem, quantity int) error {
	if err := checkAdd(item, quantity); err != nil {
		return err
	}

	m.mu.Lock()
	m.cart = domain.Cart{}
	_ = m.addLocked(item, quantity) // cannot fail on an empty cart
	snapshot, err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.announceAdd(ctx, item, quantity)
	m.subs.publish(snapshot)
	return err
}

func checkAdd(item domain.MenuItem, quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}
	if item.ID == "" || item.RestaurantID == "" {
		return fmt.Errorf("%w: id and restaurant are required", domain.ErrInvalidItem)
	}
	return nil
}

// addLocked merges quantity into the cart, which must be empty or bound to
// item's restaurant.
func (m *CartManager) addLocked(item domain.MenuItem, quantity int) error {
	if i := m.cart.Find(item.ID); i >= 0 {
		if m.cart.Lines[i].Quantity > MaxLineQuantity-quantity {
			return fmt.Errorf("%w: %d more would exceed %d for %s", domain.ErrInvalidQuantity, quantity, MaxLineQuantity, item.ID)
		}
		m.cart.Lines[i].Quantity += quantity
	} else {
		m.cart.Lines = append(m.cart.Lines, domain.CartLine{Item: item, Quantity: quantity})
	}
	if m.cart.RestaurantID == "" {
		m.cart.RestaurantID = item.RestaurantID
	}
	return nil
}

func (m *CartManager) announceAdd(ctx context.Context, item domain.MenuItem, quantity int) {
	m.notifier.Notify(ctx, domain.Notification{
		Title:       "Added to cart",
		Description: fmt.Sprintf("%d x %s added to your cart.", quantity, item.Name),
		Severity:    domain.SeverityInfo,
	})
}

// RemoveItem drops the line for itemID. Removing an absent item is a no-op.
func (m *CartManager) RemoveItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	i := m.cart.Find(itemID)
	if i < 0 {
		m.mu.Unlock()
		return nil
	}
	m.cart.Lines = append(m.cart.Lines[:i], m.cart.Lines[i+1:]...)
	// emptiness is judged on the post-removal state
	if m.cart.IsEmpty() {
		m.cart.Lines = nil
		m.cart.RestaurantID = ""
	}
	snapshot, err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.notifier.Notify(ctx, domain.Notification{
		Title:       "Removed from cart",
		Description: "Item removed from your cart.",
		Severity:    domain.SeverityInfo,
	})
	m.subs.publish(snapshot)
	return err
}

// UpdateQuantity sets the line quantity to exactly quantity. Zero or less
// removes the line; unknown items are ignored. Quantities above
// MaxLineQuantity are rejected.
func (m *CartManager) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, itemID)
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: %d exceeds %d", domain.ErrInvalidQuantity, quantity, MaxLineQuantity)
	}

	m.mu.Lock()
	i := m.cart.Find(itemID)
	if i < 0 {
		m.mu.Unlock()
		return nil
	}
	m.cart.Lines[i].Quantity = quantity
	snapshot, err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.subs.publish(snapshot)
	return err
}

// Increment raises the line quantity by one.
func (m *CartManager) Increment(ctx context.Context, itemID string) error {
	q, ok := m.quantityOf(itemID)
	if !ok {
		return nil
	}
	return m.UpdateQuantity(ctx, itemID, q+1)
}

// Decrement lowers the line quantity by one; a line at 1 is removed.
func (m *CartManager) Decrement(ctx context.Context, itemID string) error {
	q, ok := m.quantityOf(itemID)
	if !ok {
		return nil
	}
	if q <= 1 {
		return m.RemoveItem(ctx, itemID)
	}
	return m.UpdateQuantity(ctx, itemID, q-1)
}

func (m *CartManager) quantityOf(itemID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.cart.Find(itemID)
	if i < 0 {
		return 0, false
	}
	return m.cart.Lines[i].Quantity, true
}

// Clear empties the cart and removes both persisted keys.
func (m *CartManager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.cart = domain.Cart{}
	var errs []error
	if err := m.store.Remove(ctx, CartKey); err != nil {
		errs = append(errs, err)
	}
	if err := m.store.Remove(ctx, CartRestaurantKey); err != nil {
		errs = append(errs, err)
	}
	m.mu.Unlock()

	m.subs.publish(domain.Cart{})
	if len(errs) > 0 {
		m.log.Error("could not clear persisted cart", "error", errs[0])
		return fmt.Errorf("persist cart: %w", errs[0])
	}
	return nil
}

// persistLocked writes the cart and returns a snapshot. The in-memory cart
// stays authoritative when the store fails.
func (m *CartManager) persistLocked(ctx context.Context) (domain.Cart, error) {
	snapshot := m.cart.Clone()

	lines := snapshot.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return snapshot, fmt.Errorf("persist cart: %w", err)
	}
	if err := m.store.Set(ctx, CartKey, string(raw)); err != nil {
		m.log.Error("could not persist cart", "error", err)
		return snapshot, fmt.Errorf("persist cart: %w", err)
	}

	if snapshot.RestaurantID != "" {
		err = m.store.Set(ctx, CartRestaurantKey, snapshot.RestaurantID)
	} else {
		err = m.store.Remove(ctx, CartRestaurantKey)
	}
	if err != nil {
		m.log.Error("could not persist cart restaurant", "error", err)
		return snapshot, fmt.Errorf("persist cart: %w", err)
	}
	return snapshot, nil
}

// Snapshot returns a copy of the current cart.
func (m *CartManager) Snapshot() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

func (m *CartManager) Lines() []domain.CartLine {
	return m.Snapshot().Lines
}

// RestaurantID returns the bound restaurant, or "" for an empty cart.
func (m *CartManager) RestaurantID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.RestaurantID
}

// Total is recomputed from the current lines on every call.
func (m *CartManager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Total()
}

// ItemCount is recomputed from the current lines on every call.
func (m *CartManager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.ItemCount()
}

// Subscribe registers fn to receive a copy of the cart after every change.
// The returned function unsubscribes and is safe to call more than once.
func (m *CartManager) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	return m.subs.add(fn)
}
