package venue

import (
	"context"
	"database/sql"
	"errors"

	"github.com/serviohq/servio-backend/internal/apperr"
	"github.com/serviohq/servio-backend/internal/money"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByID(ctx context.Context, venueID string) (*Venue, error) {
	v := &Venue{}
	var taxRate sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, tax_rate, currency, created_at
		FROM venues WHERE id=$1`, venueID).
		Scan(&v.ID, &v.Name, &taxRate, &v.Currency, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("venue %s not found", venueID)
	}
	if err != nil {
		return nil, err
	}
	if taxRate.Valid {
		v.TaxRate = taxRate.Float64
	} else {
		v.TaxRate = money.DefaultTaxRate
	}
	return v, nil
}

func (r *postgresRepo) GetTaxRate(ctx context.Context, venueID string) (float64, error) {
	v, err := r.GetByID(ctx, venueID)
	if err != nil {
		return 0, err
	}
	return v.TaxRate, nil
}
