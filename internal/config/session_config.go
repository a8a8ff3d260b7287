package config

import "time"

type SessionConfig interface {
	GetRefreshLeeway() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRequestTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetRefreshLeeway is how long before the access token expires the proactive refresh fires
func (Session) GetRefreshLeeway() time.Duration {
	return 60 * time.Second
}

// GetDefaultAccessTokenExpiry is used when neither expires_in nor a JWT exp claim is available
func (Session) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (Session) GetRefreshTokenExpiry() time.Duration {
	return 24 * time.Hour // 1 day
}

func (Session) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv("REQUEST_TIMEOUT", "10s"))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
