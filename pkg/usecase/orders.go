package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

// OrderHistory lists the orders of whoever is logged in.
type OrderHistory struct {
	session *SessionManager
	orders  domain.OrderGateway
	opts    options
}

func NewOrderHistory(session *SessionManager, orders domain.OrderGateway, opts ...Option) (*OrderHistory, error) {
	if session == nil {
		return nil, fmt.Errorf("order history: %w: session manager", domain.ErrMissingDependency)
	}
	if orders == nil {
		return nil, fmt.Errorf("order history: %w: order gateway", domain.ErrMissingDependency)
	}
	return &OrderHistory{session: session, orders: orders, opts: buildOptions(opts)}, nil
}

// List returns the current user's orders, newest first.
func (h *OrderHistory) List(ctx context.Context) ([]domain.Order, error) {
	id, ok := h.session.Identity()
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}

	callCtx, cancel := h.opts.callContext(ctx)
	defer cancel()
	orders, err := h.orders.ListOrders(callCtx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
