package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/serviohq/servio-backend/internal/apperr"
)

type postgresStaffRepo struct{ db *sql.DB }

func NewPostgresStaffRepository(db *sql.DB) StaffRepository {
	return &postgresStaffRepo{db: db}
}

func (r *postgresStaffRepo) GetByEmail(ctx context.Context, email string) (*Staff, error) {
	s := &Staff{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, venue_id, email, password_hash
		FROM staff WHERE email=$1`, email).
		Scan(&s.ID, &s.VenueID, &s.Email, &s.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("staff member not found")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
