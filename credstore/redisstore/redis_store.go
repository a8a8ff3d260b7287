package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-booklet-session/credstore"
	"github.com/redis/go-redis/v9"
)

// Cmdable is the subset of redis.Cmdable the store needs. *redis.Client satisfies it.
type Cmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisRepo persists the credential entries as Redis keys with per-key expiry.
type RedisRepo struct {
	client  Cmdable
	prefix  string
	nowFunc func() time.Time
}

var _ credstore.Repo = (*RedisRepo)(nil)

// New creates a Redis backed credential repo. Keys are namespaced by prefix.
func New(client Cmdable, prefix string) *RedisRepo {
	return &RedisRepo{
		client:  client,
		prefix:  prefix,
		nowFunc: time.Now,
	}
}

func (s *RedisRepo) key(name string) string {
	return s.prefix + name
}

func (s *RedisRepo) Save(ctx context.Context, e credstore.Entries) error {
	if err := s.set(ctx, credstore.AccessTokenKey, e.AccessToken, e.AccessTTL); err != nil {
		return err
	}
	if err := s.set(ctx, credstore.AccessTokenExpiryKey, credstore.FormatExpiry(e.Expiry), e.AccessTTL); err != nil {
		return err
	}
	return s.set(ctx, credstore.RefreshTokenKey, e.RefreshToken, e.RefreshTTL)
}

func (s *RedisRepo) set(ctx context.Context, name, value string, ttl time.Duration) error {
	if value == "" || ttl <= 0 {
		if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}
		return nil
	}
	if err := s.client.Set(ctx, s.key(name), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

func (s *RedisRepo) Load(ctx context.Context) (credstore.Entries, error) {
	var e credstore.Entries

	access, accessTTL, err := s.get(ctx, credstore.AccessTokenKey)
	if err != nil {
		return e, err
	}
	expiry, _, err := s.get(ctx, credstore.AccessTokenExpiryKey)
	if err != nil {
		return e, err
	}
	refresh, refreshTTL, err := s.get(ctx, credstore.RefreshTokenKey)
	if err != nil {
		return e, err
	}

	e.AccessToken = access
	e.AccessTTL = accessTTL
	e.Expiry = credstore.ParseExpiry(expiry)
	e.RefreshToken = refresh
	e.RefreshTTL = refreshTTL
	if refresh != "" && refreshTTL > 0 {
		e.RefreshExpiry = s.nowFunc().Add(refreshTTL)
	}
	return e, nil
}

// get returns the value and remaining TTL of a key. A missing key is not an error.
func (s *RedisRepo) get(ctx context.Context, name string) (string, time.Duration, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", name, err)
	}

	ttl, err := s.client.PTTL(ctx, s.key(name)).Result()
	if err != nil {
		return "", 0, fmt.Errorf("failed to read ttl of %s: %w", name, err)
	}
	if ttl < 0 {
		ttl = 0 // -1 no expiry, -2 missing
	}
	return val, ttl, nil
}

func (s *RedisRepo) Clear(ctx context.Context) error {
	err := s.client.Del(ctx,
		s.key(credstore.AccessTokenKey),
		s.key(credstore.AccessTokenExpiryKey),
		s.key(credstore.RefreshTokenKey),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
