package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login verifies staff credentials and returns a signed token carrying
	// the staff and venue ids.
	Login(ctx context.Context, email, password string) (string, error)
}

// Identity is the caller context every engine operation is stamped with:
// which staff member is acting, at which venue. All reads and writes are
// filtered by the venue id.
type Identity struct {
	UserID  string
	VenueID string
}

// Claims is the token payload.
type Claims struct {
	VenueID string `json:"venue_id"`
	jwt.StandardClaims
}

type contextKey struct{}

// FromContext returns the identity injected by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// WithIdentity attaches an identity to the context. Exposed for tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Middleware parses the bearer token and injects the caller's identity.
// Requests without a valid token get a 401.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid || claims.Subject == "" || claims.VenueID == "" {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID:  claims.Subject,
				VenueID: claims.VenueID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
