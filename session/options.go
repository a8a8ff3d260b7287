package session

import (
	"time"

	"github.com/jrsteele09/go-booklet-session/credstore"
	"github.com/jrsteele09/go-booklet-session/internal/config"
	"github.com/rs/zerolog"
)

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithClock sets the time source and timer scheduler (primarily for testing)
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithRepo sets where the credential is persisted
func WithRepo(repo credstore.Repo) ManagerOption {
	return func(m *Manager) {
		m.repo = repo
	}
}

// WithLogger sets the logger (defaults to the zerolog global)
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithListener registers a listener for session events
func WithListener(l Listener) ManagerOption {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// WithRefreshLeeway sets how long before expiry the proactive refresh fires
func WithRefreshLeeway(leeway time.Duration) ManagerOption {
	return func(m *Manager) {
		m.leeway = leeway
	}
}

// WithDefaultAccessTokenExpiry sets the lifetime assumed when neither expires_in nor a JWT exp is known
func WithDefaultAccessTokenExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.defaultExpiry = d
	}
}

// WithRefreshTokenExpiry sets the lifetime of the persisted refresh token entry
func WithRefreshTokenExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshTTL = d
	}
}

// WithRefreshTimeout bounds a single refresh exchange
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshTimeout = d
	}
}

// WithConfig applies the session policy from configuration
func WithConfig(cfg config.SessionConfig) ManagerOption {
	return func(m *Manager) {
		m.leeway = cfg.GetRefreshLeeway()
		m.defaultExpiry = cfg.GetDefaultAccessTokenExpiry()
		m.refreshTTL = cfg.GetRefreshTokenExpiry()
		m.refreshTimeout = cfg.GetRequestTimeout()
	}
}
