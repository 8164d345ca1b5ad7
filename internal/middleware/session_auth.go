package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const ctxIdentityKey contextKey = "identity"

// Identity is what the authentication provider asserts about a request: an
// opaque user id and the email it verified. Nothing here is re-validated
// against credentials; the session token signature is the trust boundary.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// SessionAuth authenticates requests by validating the Bearer session token
// (HS256, signed by the auth provider with the shared secret) and putting the
// resulting Identity into request context.
func SessionAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			id, err := parseSessionToken(raw, secret)
			if err != nil {
				http.Error(w, `{"error":"invalid session token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func parseSessionToken(raw string, secret []byte) (*Identity, error) {
	tok, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*sessionClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, err
	}
	if c.Email == "" {
		return nil, errors.New("token missing email claim")
	}
	return &Identity{UserID: userID, Email: c.Email}, nil
}

// IdentityFromCtx returns the authenticated identity or nil.
func IdentityFromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxIdentityKey).(*Identity)
	return id
}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
