package credential

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Grant is the token set returned by a login or refresh exchange.
// RefreshToken is empty when the backend did not rotate it.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Credential is the single credential pair held by the client.
type Credential struct {
	AccessToken   string    // Short-lived bearer credential
	RefreshToken  string    // Only ever presented to the refresh endpoint
	IssuedAt      time.Time // When the access token was received
	Expiry        time.Time // Zero when the access token lifetime is unknown
	RefreshExpiry time.Time // When the persisted refresh entry lapses
	Generation    uint64    // Login/refresh cycle that produced this credential
}

// HasAccessToken reports whether an access token is cached and still usable at now.
func (c *Credential) HasAccessToken(now time.Time) bool {
	if c == nil || c.AccessToken == "" || c.Expiry.IsZero() {
		return false
	}
	return now.Before(c.Expiry)
}

// HasRefreshToken reports whether a refresh token is present and its entry has not lapsed.
func (c *Credential) HasRefreshToken(now time.Time) bool {
	if c == nil || c.RefreshToken == "" {
		return false
	}
	return c.RefreshExpiry.IsZero() || now.Before(c.RefreshExpiry)
}

// ExpiresIn returns the remaining lifetime of the access token at now.
func (c *Credential) ExpiresIn(now time.Time) time.Duration {
	if c == nil || c.Expiry.IsZero() {
		return 0
	}
	if d := c.Expiry.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Token converts the access token into an oauth2 bearer token.
// The refresh token is not carried.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.AccessToken,
		TokenType:   "Bearer",
		Expiry:      c.Expiry,
	}
}

// RefreshDelay returns how long to wait before refreshing a token that expires in expiresIn.
// The delay is never negative.
func RefreshDelay(expiresIn, leeway time.Duration) time.Duration {
	if d := expiresIn - leeway; d > 0 {
		return d
	}
	return 0
}

// ResolveExpiresIn picks the access token lifetime.
// An explicit expires_in wins, then the JWT exp claim, then fallback.
func ResolveExpiresIn(accessToken string, expiresInSeconds int, fallback time.Duration, now time.Time) time.Duration {
	if expiresInSeconds > 0 {
		return time.Duration(expiresInSeconds) * time.Second
	}
	if exp, ok := ExpiryFromJWT(accessToken); ok {
		if d := exp.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature.
// The client cannot verify the token and only uses exp as a scheduling hint.
func ExpiryFromJWT(accessToken string) (time.Time, bool) {
	if accessToken == "" {
		return time.Time{}, false
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
