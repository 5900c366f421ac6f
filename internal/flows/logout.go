package flows

import "context"

// LogoutFailureKind classifies termination failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureStoreUnavailable
	LogoutFailureCacheUnavailable
)

// LogoutResult reports what a termination attempt managed to do.
type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
	// Removed reports whether the refresh token was still registered.
	// Logout is idempotent; false is not a failure.
	Removed bool
}

// LogoutDeps captures session termination dependencies.
type LogoutDeps struct {
	RemoveRefreshToken func(ctx context.Context, userID, tokenStr string) (bool, error)
	ListRefreshTokens  func(ctx context.Context, userID string) ([]string, error)
	ClearRefreshTokens func(ctx context.Context, userID string) error
	// RevokeToken pushes a raw token into the revocation cache for its
	// remaining lifetime.
	RevokeToken func(ctx context.Context, tokenStr string) error
	// RevokeDigest pushes an at-rest digest into the cache with a
	// conservative TTL (used by logout-all, where raw tokens are gone).
	RevokeDigest func(ctx context.Context, digest string) error
}

// RunLogout retires one session: the refresh token leaves the registered
// set, then both presented tokens are pushed into the revocation cache so
// capture before removal propagated cannot be replayed. The registry
// mutation runs first; cache failures are reported after it took effect.
func RunLogout(ctx context.Context, userID, refreshToken, accessToken string, deps LogoutDeps) LogoutResult {
	removed, err := deps.RemoveRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureStoreUnavailable, Err: err}
	}

	if err := deps.RevokeToken(ctx, refreshToken); err != nil {
		return LogoutResult{Failure: LogoutFailureCacheUnavailable, Err: err, Removed: removed}
	}
	if accessToken != "" {
		if err := deps.RevokeToken(ctx, accessToken); err != nil {
			return LogoutResult{Failure: LogoutFailureCacheUnavailable, Err: err, Removed: removed}
		}
	}

	return LogoutResult{Removed: removed}
}

// RunLogoutAll retires every session of one user: each registered digest is
// revoked (best effort, conservative TTL), then the set is cleared.
func RunLogoutAll(ctx context.Context, userID string, deps LogoutDeps) LogoutResult {
	digests, err := deps.ListRefreshTokens(ctx, userID)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureStoreUnavailable, Err: err}
	}

	var cacheErr error
	for _, digest := range digests {
		if err := deps.RevokeDigest(ctx, digest); err != nil && cacheErr == nil {
			cacheErr = err
		}
	}

	if err := deps.ClearRefreshTokens(ctx, userID); err != nil {
		return LogoutResult{Failure: LogoutFailureStoreUnavailable, Err: err}
	}
	if cacheErr != nil {
		return LogoutResult{Failure: LogoutFailureCacheUnavailable, Err: cacheErr, Removed: len(digests) > 0}
	}

	return LogoutResult{Removed: len(digests) > 0}
}
