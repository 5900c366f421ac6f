package flows

import (
	"context"

	"github.com/cferrel/authcore/token"
)

// ValidateFailureKind classifies authentication failures for root-level
// mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureRevoked
	ValidateFailureCacheUnavailable
	ValidateFailureVerify
)

// ValidateResult carries the decoded identity or failure metadata.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	UserID  string
	Email   string
	Role    string
}

// ValidateDeps captures authentication flow dependencies.
type ValidateDeps struct {
	IsRevoked   func(ctx context.Context, tokenStr string) (bool, error)
	ParseAccess func(string) (*token.Claims, error)
	FailOpen    bool
	Warn        func(string, ...any)
}

// RunValidate authenticates an access token: presence, revocation, then
// signature/expiry. A revoked token is rejected even while its signature and
// expiry remain individually valid.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	revoked, err := deps.IsRevoked(ctx, tokenStr)
	if err != nil {
		if !deps.FailOpen {
			return ValidateResult{Failure: ValidateFailureCacheUnavailable, Err: err}
		}
		if deps.Warn != nil {
			deps.Warn("revocation cache unreachable, failing open on validate")
		}
	} else if revoked {
		return ValidateResult{Failure: ValidateFailureRevoked}
	}

	claims, err := deps.ParseAccess(tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureVerify, Err: err}
	}

	return ValidateResult{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}
}
