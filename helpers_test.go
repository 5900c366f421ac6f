package authcore

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = 2 * time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.JWT.Leeway = 0

	var err error
	cfg.JWT.AccessPublicKey, cfg.JWT.AccessPrivateKey, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	cfg.JWT.RefreshPublicKey, cfg.JWT.RefreshPrivateKey, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	// Fast argon2 parameters; these tests exercise flows, not KDF cost.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		mr.Close()
	}
}

func registerTestUser(t *testing.T, engine *Engine, email, pass string) *User {
	t.Helper()

	user, err := engine.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    pass,
		DisplayName: "Test User",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}
