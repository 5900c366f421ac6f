package flows

import (
	"context"
	"errors"
	"strings"
	"time"
)

// AccountFailureKind classifies registration failures for root-level
// mapping.
type AccountFailureKind int

const (
	AccountFailureNone AccountFailureKind = iota
	AccountFailureInvalid
	AccountFailureDuplicate
	AccountFailureStoreUnavailable
	AccountFailureHash
)

// AccountCreateRequest is the flow-local registration input.
type AccountCreateRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        uint8
}

// AccountCreateResult carries the stored record or failure metadata.
type AccountCreateResult struct {
	Failure AccountFailureKind
	Err     error
	User    *UserRecord
}

// AccountDeps captures registration flow dependencies.
type AccountDeps struct {
	HashPassword func(password string) (string, error)
	NewUserID    func() string
	CreateUser   func(ctx context.Context, user *UserRecord) error
	Now          func() time.Time

	UserExists       error
	StoreUnavailable error
}

// RunCreateAccount normalizes the email, hashes the password, and persists
// the record. Email uniqueness is enforced by the store's Create, not by a
// read-then-write here.
func RunCreateAccount(ctx context.Context, req AccountCreateRequest, deps AccountDeps) AccountCreateResult {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return AccountCreateResult{Failure: AccountFailureInvalid, Err: errors.New("invalid email")}
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return AccountCreateResult{Failure: AccountFailureHash, Err: err}
	}

	now := deps.Now()
	user := &UserRecord{
		ID:           deps.NewUserID(),
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := deps.CreateUser(ctx, user); err != nil {
		if deps.UserExists != nil && errors.Is(err, deps.UserExists) {
			return AccountCreateResult{Failure: AccountFailureDuplicate, Err: err}
		}
		return AccountCreateResult{Failure: AccountFailureStoreUnavailable, Err: err}
	}

	return AccountCreateResult{User: user}
}
