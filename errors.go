package authcore

import "errors"

var (
	// ErrUnauthorized is the generic failure returned to callers that must
	// not learn why a credential was rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by Login when the email/password
	// combination does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the principal no longer exists in the
	// identity store.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Register when the email is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserDisabled is returned when the account's active flag is off.
	ErrUserDisabled = errors.New("user disabled")
	// ErrTokenMalformed is returned for credentials that cannot be parsed.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned for structurally valid but expired
	// credentials.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned when the revocation cache holds the token.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRefreshReuse is returned when a presented refresh token is not a
	// member of the user's registered set: it was already rotated, logged
	// out, or never issued. Treated as a replay signal, not a transient
	// error.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrPermissionDenied is returned by Authorize on role mismatch.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRoleInvalid is returned for roles outside the closed role set.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrStoreUnavailable wraps identity store infrastructure failures. It is
	// reported distinctly from ErrRefreshReuse so logs can tell replay from
	// outage.
	ErrStoreUnavailable = errors.New("identity store unavailable")
	// ErrCacheUnavailable wraps revocation cache infrastructure failures.
	// Unless Config.Revocation.FailOpen is set, it rejects the request.
	ErrCacheUnavailable = errors.New("revocation cache unavailable")
	// ErrEngineNotReady is returned from methods on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
