package credential

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Info is what a local, unverified parse of the token yields.
type Info struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim has passed. A zero
// ExpiresAt (no exp claim) reads as not expired.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect parses the token without signature verification. This is a local
// precheck only (e.g., skipping a doomed who-am-I call on boot when the
// token is visibly expired); it must never gate access by itself.
func Inspect(token string) (Info, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Info{}, fmt.Errorf("credential: parse: %w", err)
	}
	var info Info
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}
	return info, nil
}
