package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cferrel/authcore/internal"
)

const revocationKeyPrefix = "arv"

// revocationStore is the ephemeral TTL-indexed set of tokens that must be
// rejected ahead of their natural expiry. Entries are keyed by token digest
// and expire exactly when the token itself would have; the cache therefore
// never needs explicit cleanup and never grows past the live token
// population.
type revocationStore struct {
	redis     *redis.Client
	prefix    string
	remaining func(tokenStr string) time.Duration
}

func newRevocationStore(redisClient *redis.Client, prefix string, remaining func(string) time.Duration) *revocationStore {
	if prefix == "" {
		prefix = revocationKeyPrefix
	}
	return &revocationStore{
		redis:     redisClient,
		prefix:    prefix,
		remaining: remaining,
	}
}

func (s *revocationStore) key(digest string) string {
	return s.prefix + ":" + digest
}

// Revoke records the token for its remaining lifetime. Already-expired or
// unparseable tokens are a no-op: there is nothing left to protect.
func (s *revocationStore) Revoke(ctx context.Context, tokenStr string) error {
	ttl := s.remaining(tokenStr)
	if ttl <= 0 {
		return nil
	}
	return s.RevokeDigest(ctx, internal.TokenDigest(tokenStr), ttl)
}

// RevokeDigest records an at-rest digest directly. Used when the raw token
// is no longer available (logout-all over stored digests); ttl is then a
// conservative upper bound.
func (s *revocationStore) RevokeDigest(ctx context.Context, digest string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(digest), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// IsRevoked is a pure presence check; expiry housekeeping is Redis's.
func (s *revocationStore) IsRevoked(ctx context.Context, tokenStr string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(internal.TokenDigest(tokenStr))).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return n == 1, nil
}
