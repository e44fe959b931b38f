package auth

import (
	"fmt"
	"time"

	"github.com/desertthunder/learnx/internal/shared"
	"github.com/dgrijalva/jwt-go"
)

// Claims are the fields of the backend's access token the client displays.
type Claims struct {
	Subject   string
	Role      string // manager, trainer or learner when present
	Email     string
	ExpiresAt time.Time // zero when the token carries no exp
}

// Decode reads the token's claims without verifying its signature.
func Decode(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: malformed token: %v", shared.ErrInvalidInput, err)
	}

	c := &Claims{
		Subject: stringClaim(mc, "sub"),
		Role:    stringClaim(mc, "role"),
		Email:   stringClaim(mc, "email"),
	}

	switch exp := mc["exp"].(type) {
	case float64:
		c.ExpiresAt = time.Unix(int64(exp), 0)
	case int64:
		c.ExpiresAt = time.Unix(exp, 0)
	}

	return c, nil
}

// Expired reports whether the token has an expiry at or before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func stringClaim(mc jwt.MapClaims, key string) string {
	if v, ok := mc[key].(string); ok {
		return v
	}
	return ""
}
