package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's token claims the client reads.
// Tokens are not verified here; the server does that on every call.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id,omitempty"`
	Role     string `json:"role,omitempty"`
	UserType string `json:"userType,omitempty"`
}

// ParseClaims decodes the token payload without verifying the signature
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the token's expiry, or the zero time when the token is
// not a JWT or carries no exp claim.
func ExpiresAt(token string) time.Time {
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Expired reports whether token carries an exp claim that is before now.
// Opaque tokens never expire client-side.
func Expired(token string, now time.Time) bool {
	exp := ExpiresAt(token)
	return !exp.IsZero() && !now.Before(exp)
}
