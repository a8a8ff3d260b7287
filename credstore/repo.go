package credstore

import (
	"context"
	"time"
)

// Entry names of the persisted layout. All three are cleared together.
const (
	AccessTokenKey       = "access_token"
	RefreshTokenKey      = "refresh_token"
	AccessTokenExpiryKey = "access_token_expiry"
)

// Entries is the persisted form of the held credential.
// Each entry carries its own TTL: the access token and its expiry live as long as
// the access token, the refresh token lives for the configured refresh lifetime.
type Entries struct {
	AccessToken   string
	RefreshToken  string
	Expiry        time.Time // Access token expiry, stored as unix millis
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RefreshExpiry time.Time // Populated on Load when the backend can report it
}

// Repo persists the client-held credential pair.
// The session manager is its only writer.
type Repo interface {
	Save(ctx context.Context, entries Entries) error
	// Load returns the entries that have not lapsed. Missing entries are zero values.
	Load(ctx context.Context) (Entries, error)
	Clear(ctx context.Context) error
}
