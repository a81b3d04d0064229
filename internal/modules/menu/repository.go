package menu

import "context"

// Repository defines read-only lookups against the menu catalog.
type Repository interface {
	// GetItem fetches a menu item scoped to a venue.
	GetItem(ctx context.Context, venueID, itemID string) (*MenuItem, error)

	// GetModifier fetches a modifier scoped to a venue.
	GetModifier(ctx context.Context, venueID, modifierID string) (*Modifier, error)
}
