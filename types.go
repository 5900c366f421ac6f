package authcore

import (
	"context"
	"time"
)

// Role is the closed set of principal roles. Authorization is exhaustive over
// this enum; extending the system means adding a variant here, not comparing
// strings.
type Role uint8

const (
	// RoleUser is the default role for registered accounts.
	RoleUser Role = iota
	// RoleAdmin grants administrative operations.
	RoleAdmin
	// RoleModerator grants content moderation operations.
	RoleModerator

	roleCount
)

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	return r < roleCount
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	case RoleModerator:
		return "moderator"
	default:
		return "unknown"
	}
}

// ParseRole maps the wire representation of a role back to the enum. Unknown
// strings return ErrRoleInvalid; they are never silently mapped to a default.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "moderator":
		return RoleModerator, nil
	default:
		return roleCount, ErrRoleInvalid
	}
}

// User is the account record owned by the identity store. It is created once
// at registration and mutated only through store operations; it is never
// hard-deleted.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the claim set embedded in both token kinds and the result of a
// successful Authenticate.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// TokenPair is a freshly issued access/refresh credential pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RotateResult is returned by [Engine.Rotate]: the new pair plus the user
// snapshot the pair was minted from.
type RotateResult struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// RegisterRequest is the input for [Engine.Register]. Email and Password are
// required; Role defaults to [RoleUser].
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        Role
}

// IdentityStore is the persistence contract the engine depends on. The
// registry package ships a Redis-backed implementation; callers may supply
// any other backend that honors the same semantics.
//
// Not-found outcomes are legitimate negative results, reported as
// [ErrUserNotFound] (lookups) or a false swap/remove result (token
// membership), never as opaque storage errors. Infrastructure failures must
// wrap [ErrStoreUnavailable].
//
// Refresh-token membership is the source of truth for "is this refresh token
// still usable". SwapRefreshToken must be atomic: of two concurrent calls
// presenting the same old token, exactly one may observe membership and
// perform the removal+insert; the other must report false.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, user *User) error

	AddRefreshToken(ctx context.Context, userID, token string) error
	RemoveRefreshToken(ctx context.Context, userID, token string) (bool, error)
	SwapRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error)
	// ListRefreshTokens returns the opaque at-rest forms (digests) of the
	// user's currently registered refresh tokens.
	ListRefreshTokens(ctx context.Context, userID string) ([]string, error)
	// ClearRefreshTokens drops every registered refresh token of the user.
	ClearRefreshTokens(ctx context.Context, userID string) error
}

// PasswordHasher is the opaque credential-hashing collaborator. The password
// package ships an Argon2id implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify performs a constant-time comparison of password against the
	// stored hash.
	Verify(password, encodedHash string) (bool, error)
}
