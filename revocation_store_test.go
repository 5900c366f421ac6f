package authcore

import (
	"context"
	"testing"
	"time"

	"github.com/cferrel/authcore/internal"
)

func TestRevocationStoreTTLMatchesRemainingLifetime(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newRevocationStore(rdb, "arv", func(string) time.Duration {
		return 90 * time.Second
	})

	ctx := context.Background()
	if err := store.Revoke(ctx, "some-token"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "some-token")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to be revoked")
	}

	key := "arv:" + internal.TokenDigest("some-token")
	if ttl := mr.TTL(key); ttl != 90*time.Second {
		t.Fatalf("expected 90s TTL, got %v", ttl)
	}

	// Entries vanish with the token's natural expiry.
	mr.FastForward(91 * time.Second)
	revoked, err = store.IsRevoked(ctx, "some-token")
	if err != nil {
		t.Fatalf("IsRevoked after expiry failed: %v", err)
	}
	if revoked {
		t.Fatal("expected entry to expire with the token")
	}
}

func TestRevokeExpiredTokenIsNoOp(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newRevocationStore(rdb, "arv", func(string) time.Duration {
		return 0
	})

	if err := store.Revoke(context.Background(), "stale-token"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if n := len(mr.Keys()); n != 0 {
		t.Fatalf("expected no cache entries for an expired token, got %d", n)
	}
}

func TestRevokeDigestConservativeTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newRevocationStore(rdb, "arv", func(string) time.Duration {
		t.Fatal("digest path must not probe the raw token")
		return 0
	})

	ctx := context.Background()
	digest := internal.TokenDigest("gone-token")
	if err := store.RevokeDigest(ctx, digest, time.Hour); err != nil {
		t.Fatalf("RevokeDigest failed: %v", err)
	}

	if ttl := mr.TTL("arv:" + digest); ttl != time.Hour {
		t.Fatalf("expected 1h TTL, got %v", ttl)
	}

	revoked, err := store.IsRevoked(ctx, "gone-token")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected digest entry to block the raw token")
	}
}
