package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

// Pricing holds the charges added on top of the cart subtotal.
type Pricing struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		DeliveryFee: decimal.RequireFromString("2.99"),
		TaxRate:     decimal.RequireFromString("0.08"),
	}
}

// PriceSummary is what the cart page shows before placing an order.
type PriceSummary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Summarize prices a cart. An empty cart costs nothing, delivery included.
func (p Pricing) Summarize(cart domain.Cart) PriceSummary {
	if cart.IsEmpty() {
		return PriceSummary{Subtotal: decimal.Zero, DeliveryFee: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	}
	subtotal := cart.Total()
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return PriceSummary{
		Subtotal:    subtotal,
		DeliveryFee: p.DeliveryFee,
		Tax:         tax,
		Total:       subtotal.Add(p.DeliveryFee).Add(tax),
	}
}

// Checkout turns the cart into an order for the logged-in user.
type Checkout struct {
	cart     *CartManager
	session  *SessionManager
	orders   domain.OrderGateway
	notifier domain.Notifier
	pricing  Pricing
	opts     options

	inFlight atomic.Bool
}

func NewCheckout(cart *CartManager, session *SessionManager, orders domain.OrderGateway, notifier domain.Notifier, pricing Pricing, opts ...Option) (*Checkout, error) {
	switch {
	case cart == nil:
		return nil, fmt.Errorf("checkout: %w: cart manager", domain.ErrMissingDependency)
	case session == nil:
		return nil, fmt.Errorf("checkout: %w: session manager", domain.ErrMissingDependency)
	case orders == nil:
		return nil, fmt.Errorf("checkout: %w: order gateway", domain.ErrMissingDependency)
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	o := buildOptions(opts)
	o.log = o.log.With("component", "checkout")
	return &Checkout{
		cart:     cart,
		session:  session,
		orders:   orders,
		notifier: notifier,
		pricing:  pricing,
		opts:     o,
	}, nil
}

func (c *Checkout) Summary() PriceSummary {
	return c.pricing.Summarize(c.cart.Snapshot())
}

// InFlight reports whether an order submission is waiting on the provider.
func (c *Checkout) InFlight() bool {
	return c.inFlight.Load()
}

// PlaceOrder submits the current cart. The cart is cleared only once the
// provider has accepted the order.
func (c *Checkout) PlaceOrder(ctx context.Context, address string) (domain.Order, error) {
	id, ok := c.session.Identity()
	if !ok {
		c.reject(ctx, "Authentication required", "Please log in to place your order.")
		return domain.Order{}, domain.ErrNotAuthenticated
	}
	address = strings.TrimSpace(address)
	if address == "" {
		c.reject(ctx, "Address required", "Please enter your delivery address.")
		return domain.Order{}, domain.ErrAddressRequired
	}
	cart := c.cart.Snapshot()
	if cart.IsEmpty() || cart.RestaurantID == "" {
		c.reject(ctx, "Cart is empty", "Add some items before placing an order.")
		return domain.Order{}, domain.ErrCartEmpty
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		c.reject(ctx, "Request in progress", "Your order is already being placed.")
		return domain.Order{}, domain.ErrRequestInFlight
	}
	defer c.inFlight.Store(false)

	draft := domain.NewOrderDraft(id.ID, cart, address)
	callCtx, cancel := c.opts.callContext(ctx)
	order, err := c.orders.SubmitOrder(callCtx, draft)
	cancel()
	if err != nil {
		c.opts.log.Error("order submission failed", "user_id", id.ID, "error", err)
		c.reject(ctx, "Failed to place order", "Please try again later.")
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}

	c.opts.log.Info("order placed", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
	if err := c.cart.Clear(ctx); err != nil {
		c.opts.log.Warn("order placed but cart could not be cleared", "order_id", order.ID, "error", err)
	}
	c.notifier.Notify(ctx, domain.Notification{
		Title:       "Order placed successfully!",
		Description: fmt.Sprintf("Your order #%s has been confirmed.", order.ID),
		Severity:    domain.SeverityInfo,
	})
	return order, nil
}

func (c *Checkout) reject(ctx context.Context, title, description string) {
	c.notifier.Notify(ctx, domain.Notification{
		Title:       title,
		Description: description,
		Severity:    domain.SeverityDestructive,
	})
}
