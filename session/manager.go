package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jrsteele09/go-booklet-session/credential"
	"github.com/jrsteele09/go-booklet-session/credstore"
	"github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Refresher exchanges a refresh token for a new grant at the auth service.
// Implementations must return an error wrapping errors.ErrRefreshRejected when
// the backend refuses the token; any other error is treated as the endpoint
// being unavailable. Both end the session.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (credential.Grant, error)
}

// Manager owns the client-held credential pair. It is the only writer of the
// persisted entries; everything else reads through GetAccessToken.
//
// Every login, refresh completion and logout advances the generation. A
// refresh is tagged with the generation it started from and its result is
// discarded if the generation has moved on by the time it completes.
type Manager struct {
	mu         sync.Mutex
	state      State
	cred       *credential.Credential
	generation uint64
	timer      Timer
	returnURL  string

	// persistMu orders repo writes so the last transition is the one persisted
	persistMu sync.Mutex
	flight    singleflight.Group

	refresher      Refresher
	repo           credstore.Repo
	clock          Clock
	logger         zerolog.Logger
	listeners      []Listener
	leeway         time.Duration
	defaultExpiry  time.Duration
	refreshTTL     time.Duration
	refreshTimeout time.Duration
}

// NewManager creates a signed out manager. Call Restore to pick up a persisted credential.
func NewManager(refresher Refresher, options ...ManagerOption) (*Manager, error) {
	if refresher == nil {
		return nil, fmt.Errorf("[NewManager] refresher is required")
	}

	m := &Manager{
		state:          SignedOut,
		refresher:      refresher,
		clock:          RealClock(),
		logger:         log.Logger,
		leeway:         60 * time.Second,
		defaultExpiry:  time.Hour,
		refreshTTL:     24 * time.Hour,
		refreshTimeout: 10 * time.Second,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.repo == nil {
		m.repo = credstore.NewInMemoryRepo(m.clock.Now)
	}
	return m, nil
}

// Login installs a freshly issued credential, persists it and arms the proactive refresh.
// An expiresIn of zero means the backend did not say; the JWT exp claim or the
// configured default is used instead. A negative expiresIn is already expired.
func (m *Manager) Login(ctx context.Context, accessToken, refreshToken string, expiresIn time.Duration) {
	m.mu.Lock()
	m.stopTimerLocked()
	now := m.clock.Now()
	expiresIn = m.lifetime(accessToken, expiresIn, now)
	m.generation++
	m.cred = &credential.Credential{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		IssuedAt:      now,
		Expiry:        now.Add(expiresIn),
		RefreshExpiry: now.Add(m.refreshTTL),
		Generation:    m.generation,
	}
	m.state = SignedIn
	m.armTimerLocked(expiresIn)
	gen, entries := m.generation, m.entriesLocked()
	m.mu.Unlock()

	m.logger.Info().Uint64("generation", gen).Dur("expires_in", expiresIn).Msg("[session Login] signed in")
	m.persist(ctx, gen, entries)
	m.notify(Event{Type: EventSignedIn, Generation: gen, At: now})
}

// Logout clears the credential. It is idempotent and never fails; the timer is
// cancelled before the tokens are cleared.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	gen, changed := m.signOutLocked()
	m.returnURL = ""
	m.mu.Unlock()

	m.persist(ctx, gen, nil)
	if changed {
		m.logger.Info().Uint64("generation", gen).Msg("[session Logout] signed out")
		m.notify(Event{Type: EventSignedOut, Reason: ReasonLogout, Generation: gen, At: m.clock.Now()})
	}
}

// GetAccessToken returns the cached access token when it has not expired,
// without blocking on the network. Otherwise it refreshes, sharing the
// exchange with any other caller waiting on the same generation. Every failure
// is reported as errors.ErrNotAuthenticated and leaves the manager signed out;
// the only other error is ctx's own when the caller stops waiting.
func (m *Manager) GetAccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.state != SignedOut && m.cred.HasAccessToken(m.clock.Now()) {
		token := m.cred.AccessToken
		m.mu.Unlock()
		return token, nil
	}
	if m.state == SignedOut {
		m.mu.Unlock()
		return "", errors.ErrNotAuthenticated
	}
	gen := m.generation
	m.mu.Unlock()

	return m.refresh(ctx, gen)
}

// Restore loads a persisted credential, typically once at startup.
// A live refresh token restores SignedIn even when the access token has lapsed;
// the next GetAccessToken then refreshes reactively.
func (m *Manager) Restore(ctx context.Context) error {
	entries, err := m.repo.Load(ctx)
	if err != nil {
		return errors.Wrapf(err, "[session Restore] failed to load credential")
	}

	m.mu.Lock()
	m.stopTimerLocked()
	now := m.clock.Now()
	m.generation++
	gen := m.generation

	if entries.AccessToken == "" && entries.RefreshToken == "" {
		wasSignedIn := m.state != SignedOut
		m.cred = nil
		m.state = SignedOut
		m.mu.Unlock()
		if wasSignedIn {
			m.notify(Event{Type: EventSignedOut, Reason: ReasonRestoreEmpty, Generation: gen, At: now})
		}
		return nil
	}

	cred := &credential.Credential{
		AccessToken:   entries.AccessToken,
		RefreshToken:  entries.RefreshToken,
		IssuedAt:      now,
		Expiry:        entries.Expiry,
		RefreshExpiry: entries.RefreshExpiry,
		Generation:    gen,
	}
	if cred.AccessToken == "" {
		cred.Expiry = time.Time{}
	}
	m.cred = cred
	m.state = SignedIn
	if cred.RefreshToken != "" && !cred.Expiry.IsZero() {
		m.armTimerLocked(cred.ExpiresIn(now))
	}
	m.mu.Unlock()

	m.logger.Info().Uint64("generation", gen).Bool("access_token", cred.AccessToken != "").
		Bool("refresh_token", cred.RefreshToken != "").Msg("[session Restore] restored credential")
	m.notify(Event{Type: EventSignedIn, Generation: gen, At: now})
	return nil
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a credential is held
func (m *Manager) IsAuthenticated() bool {
	return m.State() != SignedOut
}

// Generation returns the current credential generation
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *Manager) refresh(ctx context.Context, gen uint64) (string, error) {
	ch := m.flight.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return m.exchange(gen)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// exchange performs one refresh for generation gen. It runs at most once per
// generation at a time; concurrent callers share its result.
func (m *Manager) exchange(gen uint64) (string, error) {
	m.mu.Lock()
	if m.generation != gen {
		token, err := m.currentTokenLocked()
		m.mu.Unlock()
		return token, err
	}

	if !m.cred.HasRefreshToken(m.clock.Now()) {
		m.mu.Unlock()
		m.failRefresh(gen, ReasonNoRefreshToken)
		return "", errors.ErrNotAuthenticated
	}
	m.state = Refreshing
	refreshToken := m.cred.RefreshToken
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	grant, err := m.refresher.Refresh(ctx, refreshToken)
	cancel()

	var expiresIn time.Duration
	if err == nil && grant.AccessToken == "" {
		err = errors.Wrapf(errors.ErrInvalidResponse, "refresh returned no access token")
	}
	if err == nil {
		if expiresIn = m.lifetime(grant.AccessToken, grant.ExpiresIn, m.clock.Now()); expiresIn <= 0 {
			err = errors.Wrapf(errors.ErrInvalidResponse, "refresh returned an expired access token")
		}
	}
	if err != nil {
		reason := ReasonRefreshUnavailable
		if errors.Is(err, errors.ErrRefreshRejected) {
			reason = ReasonRefreshRejected
		}
		m.logger.Warn().Err(err).Uint64("generation", gen).Str("reason", reason).Msg("[session refresh] refresh failed")
		if m.failRefresh(gen, reason) {
			return "", errors.ErrNotAuthenticated
		}
		return m.currentToken()
	}

	m.mu.Lock()
	if m.generation != gen {
		token, err := m.currentTokenLocked()
		m.mu.Unlock()
		m.logger.Debug().Uint64("generation", gen).Msg("[session refresh] discarded stale refresh result")
		return token, err
	}

	now := m.clock.Now()
	if grant.RefreshToken != "" {
		refreshToken = grant.RefreshToken
	}
	m.generation++
	m.cred = &credential.Credential{
		AccessToken:   grant.AccessToken,
		RefreshToken:  refreshToken,
		IssuedAt:      now,
		Expiry:        now.Add(expiresIn),
		RefreshExpiry: now.Add(m.refreshTTL),
		Generation:    m.generation,
	}
	m.state = SignedIn
	m.armTimerLocked(expiresIn)
	newGen, entries := m.generation, m.entriesLocked()
	m.mu.Unlock()

	m.logger.Info().Uint64("generation", newGen).Dur("expires_in", expiresIn).
		Bool("rotated", grant.RefreshToken != "").Msg("[session refresh] credential refreshed")
	m.persist(context.Background(), newGen, entries)
	m.notify(Event{Type: EventRefreshed, Generation: newGen, At: now})
	return grant.AccessToken, nil
}

// failRefresh signs out if gen is still current. It reports whether it did.
func (m *Manager) failRefresh(gen uint64, reason string) bool {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return false
	}
	newGen, _ := m.signOutLocked()
	m.mu.Unlock()

	m.persist(context.Background(), newGen, nil)
	m.notify(Event{Type: EventSignedOut, Reason: reason, Generation: newGen, At: m.clock.Now()})
	return true
}

// onTimer runs the proactive refresh for generation gen
func (m *Manager) onTimer(gen uint64) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()

	m.logger.Debug().Uint64("generation", gen).Msg("[session onTimer] proactive refresh")
	_, _ = m.refresh(context.Background(), gen)
}

// lifetime resolves the access token lifetime. Zero means unknown, negative means lapsed.
func (m *Manager) lifetime(accessToken string, expiresIn time.Duration, now time.Time) time.Duration {
	switch {
	case expiresIn > 0:
		return expiresIn
	case expiresIn < 0:
		return 0
	default:
		return credential.ResolveExpiresIn(accessToken, 0, m.defaultExpiry, now)
	}
}

func (m *Manager) armTimerLocked(expiresIn time.Duration) {
	m.stopTimerLocked()
	gen := m.generation
	delay := credential.RefreshDelay(expiresIn, m.leeway)
	m.timer = m.clock.AfterFunc(delay, func() { m.onTimer(gen) })
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// signOutLocked moves to SignedOut. It reports whether the state changed.
func (m *Manager) signOutLocked() (uint64, bool) {
	m.stopTimerLocked()
	changed := m.state != SignedOut
	m.generation++
	m.cred = nil
	m.state = SignedOut
	return m.generation, changed
}

func (m *Manager) currentToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTokenLocked()
}

func (m *Manager) currentTokenLocked() (string, error) {
	if m.state != SignedOut && m.cred.HasAccessToken(m.clock.Now()) {
		return m.cred.AccessToken, nil
	}
	return "", errors.ErrNotAuthenticated
}

func (m *Manager) entriesLocked() *credstore.Entries {
	now := m.clock.Now()
	return &credstore.Entries{
		AccessToken:  m.cred.AccessToken,
		RefreshToken: m.cred.RefreshToken,
		Expiry:       m.cred.Expiry,
		AccessTTL:    m.cred.ExpiresIn(now),
		RefreshTTL:   m.cred.RefreshExpiry.Sub(now),
	}
}

// persist writes entries (or clears the repo when entries is nil) unless a
// later transition has already superseded generation gen.
func (m *Manager) persist(ctx context.Context, gen uint64, entries *credstore.Entries) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if m.Generation() != gen {
		return
	}

	var err error
	if entries == nil {
		err = m.repo.Clear(ctx)
	} else {
		err = m.repo.Save(ctx, *entries)
	}
	if err != nil {
		m.logger.Error().Err(err).Uint64("generation", gen).Msg("[session persist] failed to persist credential")
	}
}

func (m *Manager) notify(e Event) {
	for _, l := range m.listeners {
		l.OnSessionEvent(e)
	}
}
