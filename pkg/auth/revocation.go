package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore tracks revoked token IDs so that logout takes effect before the
// token's natural expiry.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedKeyPrefix = "revoked_token:"

type redisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a TokenStore backed by redis
func NewRedisTokenStore(client *redis.Client) TokenStore {
	return &redisTokenStore{client: client}
}

func (s *redisTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

func (s *redisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type memoryTokenStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemoryTokenStore creates an in-process TokenStore for tests and
// single-node deployments.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{revoked: make(map[string]time.Time)}
}

func (s *memoryTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (s *memoryTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.revoked[jti]
	return ok && time.Now().Before(until), nil
}
