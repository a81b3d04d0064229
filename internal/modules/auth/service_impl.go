package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/serviohq/servio-backend/internal/apperr"
)

// Staff is the minimal staff record the login path needs.
type Staff struct {
	ID           uuid.UUID
	VenueID      uuid.UUID
	Email        string
	PasswordHash string
}

// StaffRepository looks up staff credentials.
type StaffRepository interface {
	GetByEmail(ctx context.Context, email string) (*Staff, error)
}

type service struct {
	staff  StaffRepository
	secret []byte
}

// NewService creates a new auth service.
func NewService(staff StaffRepository, secret []byte) Service {
	return &service{staff: staff, secret: secret}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return "", apperr.Validation("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Validation("invalid credentials")
	}

	expirationTime := time.Now().Add(12 * time.Hour)
	claims := &Claims{
		VenueID: staff.VenueID.String(),
		StandardClaims: jwt.StandardClaims{
			Subject:   staff.ID.String(),
			ExpiresAt: expirationTime.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
