package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/cferrel/authcore/token"
)

var (
	errUserNotFound = errors.New("user not found")
	errStoreDown    = errors.New("store down")
	errCacheDown    = errors.New("cache down")
)

func activeUser() *UserRecord {
	return &UserRecord{ID: "u-1", Email: "a@example.com", Role: 0, Active: true}
}

func workingRotateDeps(user *UserRecord) RotateDeps {
	return RotateDeps{
		IsRevoked:    func(context.Context, string) (bool, error) { return false, nil },
		ParseRefresh: func(string) (*token.Claims, error) { return claimsFor(user.ID), nil },
		FindUserByID: func(context.Context, string) (*UserRecord, error) { return user, nil },
		SwapRefreshToken: func(context.Context, string, string, string) (bool, error) {
			return true, nil
		},
		RemoveRefreshToken: func(context.Context, string, string) (bool, error) { return true, nil },
		CreateAccess:       func(UserRecord) (string, error) { return "new-access", nil },
		CreateRefresh:      func(UserRecord) (string, error) { return "new-refresh", nil },
		UserNotFound:       errUserNotFound,
		StoreUnavailable:   errStoreDown,
	}
}

func claimsFor(userID string) *token.Claims {
	c := &token.Claims{}
	c.Subject = userID
	return c
}

func TestRunRotateSuccess(t *testing.T) {
	res := RunRotate(context.Background(), "presented", workingRotateDeps(activeUser()))
	if res.Failure != RotateFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.AccessToken != "new-access" || res.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected pair %q %q", res.AccessToken, res.RefreshToken)
	}
}

func TestRunRotatePreconditionOrder(t *testing.T) {
	// Revocation is checked before signature verification: a revoked token
	// must never reach the parser.
	deps := workingRotateDeps(activeUser())
	deps.IsRevoked = func(context.Context, string) (bool, error) { return true, nil }
	deps.ParseRefresh = func(string) (*token.Claims, error) {
		t.Fatal("parser reached for a revoked token")
		return nil, nil
	}

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureRevoked {
		t.Fatalf("expected revoked failure, got %v", res.Failure)
	}
}

func TestRunRotateCacheDownFailClosed(t *testing.T) {
	deps := workingRotateDeps(activeUser())
	deps.IsRevoked = func(context.Context, string) (bool, error) { return false, errCacheDown }

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureCacheUnavailable {
		t.Fatalf("expected cache failure, got %v", res.Failure)
	}
}

func TestRunRotateCacheDownFailOpen(t *testing.T) {
	warned := false
	deps := workingRotateDeps(activeUser())
	deps.IsRevoked = func(context.Context, string) (bool, error) { return false, errCacheDown }
	deps.FailOpen = true
	deps.Warn = func(string, ...any) { warned = true }

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureNone {
		t.Fatalf("expected fail-open success, got %v: %v", res.Failure, res.Err)
	}
	if !warned {
		t.Fatal("fail-open path did not warn")
	}
}

func TestRunRotateSignsBeforeSwap(t *testing.T) {
	// Both replacement tokens must exist before the swap mutates anything,
	// so a signing failure leaves no state change.
	swapped := false
	deps := workingRotateDeps(activeUser())
	deps.CreateRefresh = func(UserRecord) (string, error) { return "", errors.New("sign failed") }
	deps.SwapRefreshToken = func(context.Context, string, string, string) (bool, error) {
		swapped = true
		return true, nil
	}

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureIssue {
		t.Fatalf("expected issue failure, got %v", res.Failure)
	}
	if swapped {
		t.Fatal("swap ran after a signing failure")
	}
}

func TestRunRotateNotRegisteredIsReplay(t *testing.T) {
	deps := workingRotateDeps(activeUser())
	deps.SwapRefreshToken = func(context.Context, string, string, string) (bool, error) {
		return false, nil
	}

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureNotRegistered {
		t.Fatalf("expected not-registered failure, got %v", res.Failure)
	}
}

func TestRunRotateDisabledUserDropsToken(t *testing.T) {
	user := activeUser()
	user.Active = false

	removed := false
	deps := workingRotateDeps(user)
	deps.RemoveRefreshToken = func(context.Context, string, string) (bool, error) {
		removed = true
		return true, nil
	}

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureUserDisabled {
		t.Fatalf("expected disabled failure, got %v", res.Failure)
	}
	if !removed {
		t.Fatal("disabled user's token was not dropped")
	}
}

func TestRunRotateDisabledDropFailureWarns(t *testing.T) {
	user := activeUser()
	user.Active = false

	var warned []string
	deps := workingRotateDeps(user)
	deps.RemoveRefreshToken = func(context.Context, string, string) (bool, error) {
		return false, errStoreDown
	}
	deps.Warn = func(msg string, _ ...any) { warned = append(warned, msg) }

	res := RunRotate(context.Background(), "presented", deps)
	if res.Failure != RotateFailureUserDisabled {
		t.Fatalf("expected disabled failure, got %v", res.Failure)
	}
	if len(warned) != 1 {
		t.Fatalf("expected one warning about the failed drop, got %v", warned)
	}
}

func TestRunRotateSentinelClassification(t *testing.T) {
	deps := workingRotateDeps(activeUser())
	deps.FindUserByID = func(context.Context, string) (*UserRecord, error) {
		return nil, errUserNotFound
	}
	if res := RunRotate(context.Background(), "presented", deps); res.Failure != RotateFailureUserNotFound {
		t.Fatalf("expected user-not-found, got %v", res.Failure)
	}

	deps.FindUserByID = func(context.Context, string) (*UserRecord, error) {
		return nil, errStoreDown
	}
	if res := RunRotate(context.Background(), "presented", deps); res.Failure != RotateFailureStoreUnavailable {
		t.Fatalf("expected store-unavailable, got %v", res.Failure)
	}
}
