package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Restaurant is a storefront listing supplied by the catalog provider.
type Restaurant struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ImageURL     string  `json:"image_url"`
	Cuisine      string  `json:"cuisine"`
	Rating       float64 `json:"rating"`
	DeliveryTime string  `json:"delivery_time"`
	Address      string  `json:"address"`
	Description  string  `json:"description"`
}

// MenuItem is owned by the catalog provider and never mutated by the cart.
type MenuItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	RestaurantID string          `json:"restaurant_id"`
	Available    bool            `json:"available"`
}

// CartLine pairs one menu item with a quantity of at least 1.
type CartLine struct {
	Item     MenuItem `json:"item"`
	Quantity int      `json:"quantity"`
}

// Subtotal returns price x quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of a single restaurant. RestaurantID is empty iff
// Lines is empty.
type Cart struct {
	Lines        []CartLine `json:"lines"`
	RestaurantID string     `json:"restaurant_id,omitempty"`
}

// Total sums price x quantity over all lines.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount sums the quantities of all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Find returns the index of the line holding itemID, or -1.
func (c Cart) Find(itemID string) int {
	for i, l := range c.Lines {
		if l.Item.ID == itemID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	out := Cart{RestaurantID: c.RestaurantID}
	if len(c.Lines) > 0 {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}

// Identity is the authenticated user's session record.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// OrderStatus is owned by the provider; the client only observes it.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderLine is a snapshot of a cart line taken at submission time.
type OrderLine struct {
	ItemID   string          `json:"item_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Name     string          `json:"name"`
}

// OrderDraft is what the client submits; the provider fills in the rest.
type OrderDraft struct {
	UserID          string          `json:"user_id"`
	RestaurantID    string          `json:"restaurant_id"`
	Items           []OrderLine     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
}

// Order is an immutable snapshot returned by the provider.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	RestaurantID    string          `json:"restaurant_id"`
	Items           []OrderLine     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	DeliveryAddress string          `json:"delivery_address"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewOrderDraft snapshots the cart lines so later price changes do not
// alter the submitted order.
func NewOrderDraft(userID string, cart Cart, address string) OrderDraft {
	items := make([]OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, OrderLine{
			ItemID:   l.Item.ID,
			Quantity: l.Quantity,
			Price:    l.Item.Price,
			Name:     l.Item.Name,
		})
	}
	return OrderDraft{
		UserID:          userID,
		RestaurantID:    cart.RestaurantID,
		Items:           items,
		TotalAmount:     cart.Total(),
		DeliveryAddress: address,
	}
}
