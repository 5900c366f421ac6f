package flows

import (
	"context"
	"errors"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUnknownUser
	LoginFailureBadPassword
	LoginFailureDisabled
	LoginFailureStoreUnavailable
	LoginFailureIssue
)

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	User         *UserRecord
	AccessToken  string
	RefreshToken string
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	FindUserByEmail func(ctx context.Context, email string) (*UserRecord, error)
	VerifyPassword  func(password, encodedHash string) (bool, error)
	IssuePair       func(ctx context.Context, user UserRecord) (access, refresh string, err error)

	// Optional transparent hash upgrade on successful login.
	NeedsRehash func(encodedHash string) bool
	Rehash      func(password string) (string, error)
	UpdateUser  func(ctx context.Context, user *UserRecord) error

	UserNotFound     error
	StoreUnavailable error
	Warn             func(string, ...any)
}

// RunLogin checks credentials and issues a registered token pair.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	user, err := deps.FindUserByEmail(ctx, email)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return LoginResult{Failure: LoginFailureUnknownUser, Err: err}
		}
		return LoginResult{Failure: LoginFailureStoreUnavailable, Err: err}
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{Failure: LoginFailureBadPassword, Err: err, User: user}
	}

	if !user.Active {
		return LoginResult{Failure: LoginFailureDisabled, User: user}
	}

	if deps.NeedsRehash != nil && deps.Rehash != nil && deps.UpdateUser != nil && deps.NeedsRehash(user.PasswordHash) {
		if upgraded, rehashErr := deps.Rehash(password); rehashErr == nil {
			user.PasswordHash = upgraded
			if updateErr := deps.UpdateUser(ctx, user); updateErr != nil && deps.Warn != nil {
				deps.Warn("password hash upgrade failed")
			}
		}
	}

	access, refresh, err := deps.IssuePair(ctx, *user)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, User: user}
	}

	return LoginResult{User: user, AccessToken: access, RefreshToken: refresh}
}

// IssueDeps captures pair issuance dependencies.
type IssueDeps struct {
	CreateAccess    func(UserRecord) (string, error)
	CreateRefresh   func(UserRecord) (string, error)
	AddRefreshToken func(ctx context.Context, userID, tokenStr string) error
}

// RunIssuePair signs a fresh pair and registers the refresh token in the
// user's set. Registration happens after signing so a store failure never
// leaves a registered-but-undelivered credential.
func RunIssuePair(ctx context.Context, user UserRecord, deps IssueDeps) (string, string, error) {
	access, err := deps.CreateAccess(user)
	if err != nil {
		return "", "", err
	}
	refresh, err := deps.CreateRefresh(user)
	if err != nil {
		return "", "", err
	}
	if err := deps.AddRefreshToken(ctx, user.ID, refresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
