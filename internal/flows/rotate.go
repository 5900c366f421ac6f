package flows

import (
	"context"
	"errors"

	"github.com/cferrel/authcore/token"
)

// RotateFailureKind classifies rotation failures for root-level mapping.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	RotateFailureRevoked
	RotateFailureCacheUnavailable
	RotateFailureVerify
	RotateFailureUserNotFound
	RotateFailureUserDisabled
	RotateFailureStoreUnavailable
	RotateFailureNotRegistered
	RotateFailureIssue
)

// RotateResult carries either the issued token pair or failure metadata.
type RotateResult struct {
	Failure      RotateFailureKind
	Err          error
	UserID       string
	User         *UserRecord
	AccessToken  string
	RefreshToken string
}

// RotateDeps captures rotation flow dependencies.
type RotateDeps struct {
	IsRevoked          func(ctx context.Context, tokenStr string) (bool, error)
	ParseRefresh       func(string) (*token.Claims, error)
	FindUserByID       func(ctx context.Context, id string) (*UserRecord, error)
	SwapRefreshToken   func(ctx context.Context, userID, oldToken, newToken string) (bool, error)
	RemoveRefreshToken func(ctx context.Context, userID, tokenStr string) (bool, error)
	CreateAccess       func(UserRecord) (string, error)
	CreateRefresh      func(UserRecord) (string, error)

	// FailOpen makes an unreachable revocation cache read as "not revoked"
	// instead of failing the rotation. Off by default; deployments opt in.
	FailOpen bool

	UserNotFound     error
	StoreUnavailable error
	Warn             func(string, ...any)
}

// RunRotate executes the rotation precondition chain: revocation check,
// signature/expiry verification, principal lookup, then the atomic
// membership swap. The swap is the only mutation; both replacement tokens
// are signed before it runs, so a rotation that fails leaves no partial
// state and a rotation that succeeds has nothing left to fail.
func RunRotate(ctx context.Context, presented string, deps RotateDeps) RotateResult {
	revoked, err := deps.IsRevoked(ctx, presented)
	if err != nil {
		if !deps.FailOpen {
			return RotateResult{Failure: RotateFailureCacheUnavailable, Err: err}
		}
		if deps.Warn != nil {
			deps.Warn("revocation cache unreachable, failing open on rotate")
		}
	} else if revoked {
		return RotateResult{Failure: RotateFailureRevoked}
	}

	claims, err := deps.ParseRefresh(presented)
	if err != nil {
		return RotateResult{Failure: RotateFailureVerify, Err: err}
	}

	user, err := deps.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return RotateResult{Failure: RotateFailureUserNotFound, Err: err, UserID: claims.Subject}
		}
		return RotateResult{Failure: RotateFailureStoreUnavailable, Err: err, UserID: claims.Subject}
	}

	if !user.Active {
		// A disabled account keeps no live refresh tokens.
		if _, err := deps.RemoveRefreshToken(ctx, user.ID, presented); err != nil && deps.Warn != nil {
			deps.Warn("could not drop refresh token of disabled account", "error", err)
		}
		return RotateResult{Failure: RotateFailureUserDisabled, UserID: user.ID, User: user}
	}

	access, err := deps.CreateAccess(*user)
	if err != nil {
		return RotateResult{Failure: RotateFailureIssue, Err: err, UserID: user.ID, User: user}
	}
	refresh, err := deps.CreateRefresh(*user)
	if err != nil {
		return RotateResult{Failure: RotateFailureIssue, Err: err, UserID: user.ID, User: user}
	}

	swapped, err := deps.SwapRefreshToken(ctx, user.ID, presented, refresh)
	if err != nil {
		return RotateResult{Failure: RotateFailureStoreUnavailable, Err: err, UserID: user.ID, User: user}
	}
	if !swapped {
		// The presented token is not in the user's set: consumed by an
		// earlier rotation, logged out, or foreign. Replay signal.
		return RotateResult{Failure: RotateFailureNotRegistered, UserID: user.ID, User: user}
	}

	return RotateResult{
		UserID:       user.ID,
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
