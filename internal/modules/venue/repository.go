package venue

import "context"

// Repository defines read-only venue configuration lookups.
type Repository interface {
	GetByID(ctx context.Context, venueID string) (*Venue, error)

	// GetTaxRate returns the venue's configured tax rate as a fraction.
	GetTaxRate(ctx context.Context, venueID string) (float64, error)
}
