package menu

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a sellable item on a venue's menu. The transaction engine
// only reads it at line-add time to snapshot the name and price onto the
// order; menu management itself lives elsewhere.
type MenuItem struct {
	ID          uuid.UUID `json:"id"`
	VenueID     uuid.UUID `json:"venue_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Modifier is a priced option that can be attached to a menu item
// (e.g. "Extra Cheese", +1.50).
type Modifier struct {
	ID              uuid.UUID `json:"id"`
	VenueID         uuid.UUID `json:"venue_id"`
	Name            string    `json:"name"`
	PriceAdjustment float64   `json:"price_adjustment"`
	CreatedAt       time.Time `json:"created_at"`
}
