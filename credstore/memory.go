package credstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryRepo keeps the entries in process memory with per-entry expiry,
// mirroring browser cookie semantics.
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	nowFunc func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates an empty in-memory credential repo
func NewInMemoryRepo(nowFunc func() time.Time) *InMemoryRepo {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &InMemoryRepo{
		entries: make(map[string]memoryEntry),
		nowFunc: nowFunc,
	}
}

func (r *InMemoryRepo) Save(_ context.Context, e Entries) error {
	now := r.nowFunc()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.set(AccessTokenKey, e.AccessToken, now, e.AccessTTL)
	r.set(AccessTokenExpiryKey, FormatExpiry(e.Expiry), now, e.AccessTTL)
	r.set(RefreshTokenKey, e.RefreshToken, now, e.RefreshTTL)
	return nil
}

func (r *InMemoryRepo) set(key, value string, now time.Time, ttl time.Duration) {
	if value == "" || ttl <= 0 {
		delete(r.entries, key)
		return
	}
	r.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
}

func (r *InMemoryRepo) Load(_ context.Context) (Entries, error) {
	now := r.nowFunc()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var e Entries
	if v, ok := r.get(AccessTokenKey, now); ok {
		e.AccessToken = v.value
		e.AccessTTL = v.expiresAt.Sub(now)
	}
	if v, ok := r.get(AccessTokenExpiryKey, now); ok {
		e.Expiry = ParseExpiry(v.value)
	}
	if v, ok := r.get(RefreshTokenKey, now); ok {
		e.RefreshToken = v.value
		e.RefreshTTL = v.expiresAt.Sub(now)
		e.RefreshExpiry = v.expiresAt
	}
	return e, nil
}

func (r *InMemoryRepo) get(key string, now time.Time) (memoryEntry, bool) {
	v, ok := r.entries[key]
	if !ok || !now.Before(v.expiresAt) {
		return memoryEntry{}, false
	}
	return v, true
}

func (r *InMemoryRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, AccessTokenKey)
	delete(r.entries, AccessTokenExpiryKey)
	delete(r.entries, RefreshTokenKey)
	return nil
}
