// Package jwtauth inspects access tokens issued by the catalog API. The client
// never holds the signing secret, so tokens are decoded without verifying the
// signature and only used to decide when a session is stale.
package jwtauth

import (
	"encoding/json"
	"errors"
	"time"

	jwtpac "github.com/golang-jwt/jwt/v4"
)

// ErrMalformedToken is returned when a token cannot be decoded as a JWT.
var ErrMalformedToken = errors.New("malformed token")

// TokenInfo holds the claims the client cares about.
type TokenInfo struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (i TokenInfo) HasExpiry() bool {
	return !i.ExpiresAt.IsZero()
}

// Expired reports whether the token is past its exp claim at now.
// Tokens without exp never expire on the client side.
func (i TokenInfo) Expired(now time.Time) bool {
	return i.HasExpiry() && !now.Before(i.ExpiresAt)
}

// Remaining returns the time left before expiry, zero when expired or unknown.
func (i TokenInfo) Remaining(now time.Time) time.Duration {
	if !i.HasExpiry() || i.Expired(now) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}

// Inspect decodes token without verifying its signature.
func Inspect(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, ErrMalformedToken
	}

	parsed, _, err := (&jwtpac.Parser{UseJSONNumber: true}).ParseUnverified(token, jwtpac.MapClaims{})
	if err != nil {
		return TokenInfo{}, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(jwtpac.MapClaims)
	if !ok {
		return TokenInfo{}, ErrMalformedToken
	}

	var info TokenInfo
	if sub, ok := claims["sub"].(string); ok {
		info.Subject = sub
	}
	if name, ok := claims["username"].(string); ok {
		info.Username = name
	}
	if exp, ok := claims["exp"].(json.Number); ok {
		secs, err := exp.Int64()
		if err != nil {
			f, ferr := exp.Float64()
			if ferr != nil {
				return TokenInfo{}, ErrMalformedToken
			}
			secs = int64(f)
		}
		info.ExpiresAt = time.Unix(secs, 0)
	}

	return info, nil
}

// Expired is a shortcut for Inspect(token).Expired(now). Tokens that are not
// JWTs are treated as opaque and never expire.
func Expired(token string, now time.Time) bool {
	info, err := Inspect(token)
	if err != nil {
		return false
	}
	return info.Expired(now)
}
