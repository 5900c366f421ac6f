package test

import (
	"context"
	"net/http"
	"testing"

	authcore "github.com/cferrel/authcore"
	"github.com/cferrel/authcore/middleware"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = authcore.New
	_ = authcore.DefaultConfig

	var _ *authcore.Engine
	var _ authcore.Config
	var _ authcore.User
	var _ authcore.Identity
	var _ authcore.TokenPair
	var _ authcore.RotateResult
	var _ authcore.RegisterRequest
	var _ authcore.IdentityStore
	var _ authcore.PasswordHasher
	var _ authcore.AuditSink

	var _ error = authcore.ErrUnauthorized
	var _ error = authcore.ErrInvalidCredentials
	var _ error = authcore.ErrUserNotFound
	var _ error = authcore.ErrUserExists
	var _ error = authcore.ErrUserDisabled
	var _ error = authcore.ErrTokenMalformed
	var _ error = authcore.ErrTokenExpired
	var _ error = authcore.ErrTokenRevoked
	var _ error = authcore.ErrRefreshReuse
	var _ error = authcore.ErrPermissionDenied
	var _ error = authcore.ErrStoreUnavailable
	var _ error = authcore.ErrCacheUnavailable

	var _ func(*authcore.Engine, ...authcore.Role) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*authcore.Engine, authcore.Role) func(http.Handler) http.Handler = middleware.RequireRole

	var _ func(*authcore.Engine, context.Context, authcore.RegisterRequest) (*authcore.User, error) = (*authcore.Engine).Register
	var _ func(*authcore.Engine, context.Context, string, string) (*authcore.TokenPair, *authcore.User, error) = (*authcore.Engine).Login
	var _ func(*authcore.Engine, context.Context, string) (*authcore.Identity, error) = (*authcore.Engine).Authenticate
	var _ func(*authcore.Engine, context.Context, string) (*authcore.RotateResult, error) = (*authcore.Engine).Rotate
	var _ func(*authcore.Engine, context.Context, string, string, string) error = (*authcore.Engine).Logout
	var _ func(*authcore.Engine, context.Context, string) error = (*authcore.Engine).LogoutAll
}
