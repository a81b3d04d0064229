package menu

import (
	"context"
	"database/sql"
	"errors"

	"github.com/serviohq/servio-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetItem(ctx context.Context, venueID, itemID string) (*MenuItem, error) {
	m := &MenuItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, venue_id, name, description, category, price, is_available, created_at, updated_at
		FROM menu_items WHERE id=$1 AND venue_id=$2`, itemID, venueID).
		Scan(&m.ID, &m.VenueID, &m.Name, &m.Description, &m.Category,
			&m.Price, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("menu item %s not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresRepo) GetModifier(ctx context.Context, venueID, modifierID string) (*Modifier, error) {
	m := &Modifier{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, venue_id, name, price_adjustment, created_at
		FROM modifiers WHERE id=$1 AND venue_id=$2`, modifierID, venueID).
		Scan(&m.ID, &m.VenueID, &m.Name, &m.PriceAdjustment, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("modifier %s not found", modifierID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
