package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessExpiry reads the exp claim of a JWT access token without verifying it.
// Opaque tokens report ok == false.
func AccessExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
