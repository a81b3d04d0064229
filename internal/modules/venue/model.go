package venue

import (
	"time"

	"github.com/google/uuid"
)

// Venue holds the per-tenant configuration the transaction engine reads.
type Venue struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaxRate   float64   `json:"tax_rate"` // fraction, e.g. 0.0825 for 8.25%
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
