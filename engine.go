package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cferrel/authcore/internal/flows"
	"github.com/cferrel/authcore/token"
)

// Engine is the facade over the whole token lifecycle: registration, login,
// authentication, authorization, rotation, and termination. Build one via
// the Builder; an Engine is safe for concurrent use and holds no per-request
// state.
type Engine struct {
	config      Config
	store       IdentityStore
	hasher      PasswordHasher
	tokens      *token.Manager
	revocations *revocationStore
	flows       flows.Service
	audit       *auditDispatcher
	metrics     *Metrics
	logger      *slog.Logger
}

// Close flushes and stops the audit dispatcher. Idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, userID string, success bool, opErr error, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}

/*
====================================
REGISTRATION / LOGIN
====================================
*/

// Register creates a new account. The email is normalized to lowercase and
// must be unique; duplicates return ErrUserExists. The password is stored
// only as an argon2id hash.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	// Zero value is RoleUser, so an unset Role registers a regular account.
	if !req.Role.Valid() {
		return nil, ErrRoleInvalid
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidCredentials)
	}

	res := e.flows.CreateAccount(ctx, flows.AccountCreateRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        uint8(req.Role),
	})

	switch res.Failure {
	case flows.AccountFailureNone:
	case flows.AccountFailureInvalid:
		e.emitAudit(ctx, AuditRegister, "", false, res.Err, nil)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, res.Err)
	case flows.AccountFailureDuplicate:
		e.metricInc(MetricAccountCreationDuplicate)
		e.emitAudit(ctx, AuditRegister, "", false, res.Err, nil)
		return nil, ErrUserExists
	case flows.AccountFailureHash:
		return nil, res.Err
	default:
		return nil, storeErr(res.Err)
	}

	e.metricInc(MetricAccountCreationSuccess)
	user := recordUser(res.User)
	e.emitAudit(ctx, AuditRegister, user.ID, true, nil, nil)
	return user, nil
}

// Login verifies credentials and issues a registered token pair. Unknown
// email and wrong password both return ErrInvalidCredentials; only a
// disabled account is distinguished.
func (e *Engine) Login(ctx context.Context, email, pass string) (*TokenPair, *User, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, nil, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, normalizeLoginEmail(email), pass)

	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureUnknownUser, flows.LoginFailureBadPassword:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, auditUserID(res.User), false, ErrInvalidCredentials, nil)
		return nil, nil, ErrInvalidCredentials
	case flows.LoginFailureDisabled:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLogin, auditUserID(res.User), false, ErrUserDisabled, nil)
		return nil, nil, ErrUserDisabled
	case flows.LoginFailureStoreUnavailable:
		return nil, nil, storeErr(res.Err)
	default:
		return nil, nil, res.Err
	}

	e.metricInc(MetricLoginSuccess)
	user := recordUser(res.User)
	e.emitAudit(ctx, AuditLogin, user.ID, true, nil, nil)
	return &TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, user, nil
}

// IssueTokenPair mints and registers a pair for an already-authenticated
// user, bypassing credential checks. Intended for flows like post-
// registration auto-login.
func (e *Engine) IssueTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}
	if !user.Active {
		return nil, ErrUserDisabled
	}

	access, refresh, err := e.flows.IssuePair(ctx, *userRecord(user))
	if err != nil {
		return nil, err
	}
	e.emitAudit(ctx, AuditIssue, user.ID, true, nil, nil)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

/*
====================================
AUTHENTICATION / AUTHORIZATION
====================================
*/

// Authenticate verifies an access token and returns the identity it binds.
// The precondition order is fixed: presence, revocation, then signature and
// expiry. A revoked token fails even while cryptographically valid.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := e.flows.Validate(ctx, accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	switch res.Failure {
	case flows.ValidateFailureNone:
	case flows.ValidateFailureMissing:
		e.metricInc(MetricValidateFailure)
		return nil, ErrTokenMalformed
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateRevoked)
		e.emitAudit(ctx, AuditValidate, "", false, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	case flows.ValidateFailureCacheUnavailable:
		e.metricInc(MetricValidateFailure)
		return nil, cacheErr(res.Err)
	default:
		e.metricInc(MetricValidateFailure)
		return nil, verifyErr(res.Err)
	}

	role, err := ParseRole(res.Role)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, ErrTokenMalformed
	}

	e.metricInc(MetricValidateSuccess)
	return &Identity{UserID: res.UserID, Email: res.Email, Role: role}, nil
}

// Authorize authenticates the token and then requires the identity's role
// to be one of the allowed set. An empty allowed set means any
// authenticated identity passes.
func (e *Engine) Authorize(ctx context.Context, accessToken string, allowed ...Role) (*Identity, error) {
	identity, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if len(allowed) == 0 {
		return identity, nil
	}
	for _, r := range allowed {
		if identity.Role == r {
			return identity, nil
		}
	}

	e.metricInc(MetricPermissionDenied)
	e.emitAudit(ctx, AuditAuthorize, identity.UserID, false, ErrPermissionDenied, map[string]string{
		"role": identity.Role.String(),
	})
	return nil, ErrPermissionDenied
}

/*
====================================
ROTATION
====================================
*/

// Rotate exchanges a refresh token for a fresh pair. The presented token is
// consumed atomically: of any number of concurrent rotations presenting the
// same token, exactly one succeeds and the rest observe ErrRefreshReuse.
// Reuse of an already-consumed token is the replay signal and is audited as
// such.
func (e *Engine) Rotate(ctx context.Context, refreshToken string) (*RotateResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Rotate(ctx, refreshToken)

	switch res.Failure {
	case flows.RotateFailureNone:
	case flows.RotateFailureRevoked:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, AuditRotate, res.UserID, false, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	case flows.RotateFailureCacheUnavailable:
		e.metricInc(MetricRotateFailure)
		return nil, cacheErr(res.Err)
	case flows.RotateFailureVerify:
		e.metricInc(MetricRotateFailure)
		return nil, verifyErr(res.Err)
	case flows.RotateFailureUserNotFound:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, AuditRotate, res.UserID, false, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	case flows.RotateFailureUserDisabled:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, AuditRotate, res.UserID, false, ErrUserDisabled, nil)
		return nil, ErrUserDisabled
	case flows.RotateFailureNotRegistered:
		e.metricInc(MetricRotateReuseDetected)
		e.emitAudit(ctx, AuditReuse, res.UserID, false, ErrRefreshReuse, nil)
		return nil, ErrRefreshReuse
	case flows.RotateFailureStoreUnavailable:
		e.metricInc(MetricRotateFailure)
		return nil, storeErr(res.Err)
	default:
		e.metricInc(MetricRotateFailure)
		return nil, res.Err
	}

	e.metricInc(MetricRotateSuccess)
	user := recordUser(res.User)
	e.emitAudit(ctx, AuditRotate, user.ID, true, nil, nil)
	return &RotateResult{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         *user,
	}, nil
}

/*
====================================
REVOCATION / TERMINATION
====================================
*/

// Revoke pushes a token into the revocation cache for its remaining
// lifetime. Revoking an expired or unparseable token is a no-op.
func (e *Engine) Revoke(ctx context.Context, tokenStr string) error {
	if e == nil || e.revocations == nil {
		return ErrEngineNotReady
	}
	if err := e.revocations.Revoke(ctx, tokenStr); err != nil {
		return err
	}
	e.metricInc(MetricRevocations)
	e.emitAudit(ctx, AuditRevoke, "", true, nil, nil)
	return nil
}

// Logout retires one session: the refresh token leaves the user's
// registered set, and both presented tokens are revoked for their remaining
// lifetimes. Idempotent; logging out an already-retired session succeeds.
// accessToken may be empty when the caller only holds the refresh token.
func (e *Engine) Logout(ctx context.Context, userID, refreshToken, accessToken string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, userID, refreshToken, accessToken)

	switch res.Failure {
	case flows.LogoutFailureNone:
	case flows.LogoutFailureStoreUnavailable:
		return storeErr(res.Err)
	default:
		return cacheErr(res.Err)
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricRevocations)
	e.emitAudit(ctx, AuditLogout, userID, true, nil, nil)
	return nil
}

// LogoutAll retires every session of the user: each registered refresh
// token is revoked by digest with a conservative TTL, then the set is
// cleared.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	res := e.flows.LogoutAll(ctx, userID)

	switch res.Failure {
	case flows.LogoutFailureNone:
	case flows.LogoutFailureStoreUnavailable:
		return storeErr(res.Err)
	default:
		return cacheErr(res.Err)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, AuditLogoutAll, userID, true, nil, nil)
	return nil
}

/*
====================================
HELPERS
====================================
*/

// storeErr guarantees the sentinel is present even when a custom
// IdentityStore forgot to wrap.
func storeErr(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func cacheErr(err error) error {
	if err == nil || errors.Is(err, ErrCacheUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
}

// verifyErr maps token-package sentinels onto the public taxonomy.
func verifyErr(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return ErrTokenExpired
	}
	return ErrTokenMalformed
}

func auditUserID(u *flows.UserRecord) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func normalizeLoginEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// recordPayload projects a flow record into token claims.
func recordPayload(u flows.UserRecord) token.Payload {
	return token.Payload{
		UserID: u.ID,
		Email:  u.Email,
		Role:   Role(u.Role).String(),
	}
}

func userRecord(u *User) *flows.UserRecord {
	if u == nil {
		return nil
	}
	return &flows.UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Role:         uint8(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func recordUser(u *flows.UserRecord) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Role:         Role(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
