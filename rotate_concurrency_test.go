package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRotateConcurrencySingleWinner(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(t))
	defer done()

	ctx := context.Background()
	user := registerTestUser(t, engine, "race@example.com", "correct-horse")
	pair, _, err := engine.Login(ctx, user.Email, "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	winners := make(chan *RotateResult, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			res, err := engine.Rotate(ctx, pair.RefreshToken)
			if err == nil {
				winners <- res
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)
	close(winners)

	success := 0
	reuse := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrRefreshReuse):
			reuse++
		default:
			t.Fatalf("unexpected rotate error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("expected exactly one rotation winner, got %d", success)
	}
	if reuse != n-1 {
		t.Fatalf("expected %d reuse rejections, got %d", n-1, reuse)
	}

	// The winner's replacement pair must be live.
	winner := <-winners
	if _, err := engine.Authenticate(ctx, winner.AccessToken); err != nil {
		t.Fatalf("winner access token rejected: %v", err)
	}
	if _, err := engine.Rotate(ctx, winner.RefreshToken); err != nil {
		t.Fatalf("winner refresh token rejected: %v", err)
	}
}
