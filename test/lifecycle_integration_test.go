//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"

	authcore "github.com/cferrel/authcore"
)

func TestFullLifecycleThroughPublicAPI(t *testing.T) {
	ctx := context.Background()
	engine, _, cleanup := newIntegrationEngine(t)
	defer cleanup()

	user, err := engine.Register(ctx, authcore.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	pair, loggedIn, err := engine.Login(ctx, "alice@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("login returned user %q, registered %q", loggedIn.ID, user.ID)
	}

	identity, err := engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("identity user %q, want %q", identity.UserID, user.ID)
	}

	rotated, err := engine.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	// The consumed token replays as reuse.
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, authcore.ErrRefreshReuse) {
		t.Fatalf("replay error = %v, want ErrRefreshReuse", err)
	}

	if err := engine.Logout(ctx, user.ID, rotated.RefreshToken, rotated.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Authenticate(ctx, rotated.AccessToken); !errors.Is(err, authcore.ErrTokenRevoked) {
		t.Fatalf("post-logout error = %v, want ErrTokenRevoked", err)
	}
}

func TestRotationRaceThroughPublicAPI(t *testing.T) {
	ctx := context.Background()
	engine, _, cleanup := newIntegrationEngine(t)
	defer cleanup()

	if _, err := engine.Register(ctx, authcore.RegisterRequest{
		Email:    "race@example.com",
		Password: "correct horse battery",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	pair, _, err := engine.Login(ctx, "race@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := engine.Rotate(ctx, pair.RefreshToken)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, authcore.ErrRefreshReuse):
		default:
			t.Fatalf("unexpected rotate error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("expected exactly one winner, got %d", success)
	}
}
