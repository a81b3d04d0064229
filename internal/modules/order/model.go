package order

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an open tab.
type OrderStatus string

const (
	StatusOpen      OrderStatus = "open"
	StatusSent      OrderStatus = "sent"
	StatusCompleted OrderStatus = "completed"
	StatusVoided    OrderStatus = "voided"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderType indicates how the guests are being served.
type OrderType string

const (
	TypeDineIn   OrderType = "dine_in"
	TypeTakeout  OrderType = "takeout"
	TypeDelivery OrderType = "delivery"
	TypeBar      OrderType = "bar"
)

// ItemStatus tracks a single line through the kitchen.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemSent      ItemStatus = "sent"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemDelivered ItemStatus = "delivered"
)

// validTransitions defines the allowed status state machine.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusOpen:      {StatusSent, StatusCompleted, StatusVoided, StatusCancelled},
	StatusSent:      {StatusCompleted, StatusVoided, StatusCancelled},
	StatusCompleted: {},
	StatusVoided:    {},
	StatusCancelled: {},
}

// CanTransition returns true if an order may move from one status to another.
func CanTransition(current, next OrderStatus) bool {
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status accepts no further transitions.
func IsTerminal(s OrderStatus) bool { return len(validTransitions[s]) == 0 }

// Order is one open tab for a table or counter visit. Totals are derived
// from the items and recomputed after every item mutation; total is always
// subtotal + tax - discount.
type Order struct {
	ID          uuid.UUID    `json:"id"`
	VenueID     uuid.UUID    `json:"venue_id"`
	ServerID    uuid.UUID    `json:"server_id"`
	OrderNumber int          `json:"order_number"` // unique within venue+day
	TableNumber *int         `json:"table_number,omitempty"`
	GuestCount  int          `json:"guest_count"`
	OrderType   OrderType    `json:"order_type"`
	Status      OrderStatus  `json:"status"`
	Subtotal    float64      `json:"subtotal"`
	Tax         float64      `json:"tax"`
	Tip         float64      `json:"tip"`
	Discount    float64      `json:"discount"`
	Total       float64      `json:"total"`
	Notes       string       `json:"notes,omitempty"`
	Items       []*OrderItem `json:"items,omitempty"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// OrderItem is a single line on an order. Name and price are captured when
// the line is added and never re-read from the menu, so later menu edits
// cannot change an open tab.
type OrderItem struct {
	ID              uuid.UUID            `json:"id"`
	OrderID         uuid.UUID            `json:"order_id"`
	MenuItemID      uuid.UUID            `json:"menu_item_id"`
	Name            string               `json:"name"`
	Price           float64              `json:"price"`
	Quantity        int                  `json:"quantity"`
	ModifierTotal   float64              `json:"modifier_total"`
	Total           float64              `json:"total"` // price*quantity + modifier_total
	Notes           string               `json:"notes,omitempty"`
	Status          ItemStatus           `json:"status"`
	Modifiers       []*OrderItemModifier `json:"modifiers,omitempty"`
	SentToKitchenAt *time.Time           `json:"sent_to_kitchen_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// OrderItemModifier is a priced option snapshot attached to a line.
// Immutable once created; removed only with its parent item.
type OrderItemModifier struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"item_id"`
	ModifierID uuid.UUID `json:"modifier_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

// CreateOrderRequest is the payload for opening a new tab.
type CreateOrderRequest struct {
	TableNumber *int   `json:"table_number,omitempty"`
	GuestCount  int    `json:"guest_count"`
	OrderType   string `json:"order_type"`
	Notes       string `json:"notes,omitempty"`
}

// AddItemModifier selects a catalog modifier for a new line.
type AddItemModifier struct {
	ModifierID string `json:"modifier_id"`
	Quantity   int    `json:"quantity,omitempty"` // defaults to 1
}

// AddItemRequest is the payload for adding a line to an open order.
type AddItemRequest struct {
	MenuItemID string            `json:"menu_item_id"`
	Quantity   int               `json:"quantity"`
	Modifiers  []AddItemModifier `json:"modifiers,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

// UpdateItemRequest changes only the supplied fields of a line.
type UpdateItemRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// ApplyDiscountRequest sets a flat discount on the order.
type ApplyDiscountRequest struct {
	Amount float64 `json:"amount"`
}
