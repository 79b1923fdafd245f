package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuth               = errors.New("invalid credentials")
	ErrRegistration       = errors.New("registration rejected")
	ErrRestaurantConflict = errors.New("cart has another restaurant")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidItem        = errors.New("invalid menu item")
	ErrItemUnavailable    = errors.New("menu item unavailable")
	ErrItemNotFound       = errors.New("menu item not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAddressRequired    = errors.New("delivery address required")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrRequestInFlight    = errors.New("request already in flight")
	ErrMissingDependency  = errors.New("missing dependency")
)

// RestaurantConflictError is returned when an item from another restaurant is
// added to a non-empty cart. The cart is left untouched.
type RestaurantConflictError struct {
	Item             MenuItem
	Quantity         int
	CartRestaurantID string
}

func (e *RestaurantConflictError) Error() string {
	return fmt.Sprintf("%s: cart is bound to restaurant %q, item %q belongs to %q",
		ErrRestaurantConflict, e.CartRestaurantID, e.Item.ID, e.Item.RestaurantID)
}

func (e *RestaurantConflictError) Unwrap() error {
	return ErrRestaurantConflict
}
