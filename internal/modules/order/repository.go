package order

import "context"

// Repository defines data access for orders. Every lookup is scoped by
// venue id; an order belonging to another venue is indistinguishable from
// one that does not exist.
type Repository interface {
	// Create persists a new order, assigning the next order number for the
	// venue+day atomically in the same transaction.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves an order with its items and modifiers.
	GetByID(ctx context.Context, venueID, orderID string) (*Order, error)

	// ListOpen returns all open and sent orders for a venue.
	ListOpen(ctx context.Context, venueID string) ([]*Order, error)

	// Update writes the order's mutable columns guarded by its version;
	// returns ErrVersionConflict when a concurrent writer won.
	Update(ctx context.Context, o *Order) error

	// AddItem inserts an item and its modifiers and applies the order's new
	// totals in one transaction, guarded by the order's version.
	AddItem(ctx context.Context, o *Order, item *OrderItem) error

	// UpdateItem writes an item's mutable columns and applies the order's
	// new totals in one transaction, guarded by the order's version.
	UpdateItem(ctx context.Context, o *Order, item *OrderItem) error

	// RemoveItem deletes an item (modifiers cascade) and applies the
	// order's new totals in one transaction, guarded by the order's version.
	RemoveItem(ctx context.Context, o *Order, itemID string) error

	// MarkItemsSent stamps every item on the order as sent to the kitchen.
	MarkItemsSent(ctx context.Context, o *Order) error
}
