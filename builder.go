package authcore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cferrel/authcore/internal/flows"
	"github.com/cferrel/authcore/password"
	"github.com/cferrel/authcore/registry"
	"github.com/cferrel/authcore/token"
)

// Builder assembles an Engine. Configure, then call Build exactly once;
// everything the engine holds afterwards is immutable.
type Builder struct {
	config Config
	redis  *redis.Client

	store     IdentityStore
	hasher    PasswordHasher
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client backing the revocation cache and, unless
// WithIdentityStore overrides it, the identity registry.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore replaces the built-in Redis registry with a caller
// implementation.
func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.store = store
	return b
}

// WithPasswordHasher replaces the built-in argon2id hasher.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger for degradation warnings. Without
// one the engine logs nothing.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, constructs every collaborator, and
// wires the flow runners. All key-material problems surface here.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	tm, err := token.NewManager(cfg.tokenConfig())
	if err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = newRegistryStore(registry.NewStore(b.redis, cfg.Registry.RedisPrefix, cfg.JWT.RefreshTTL))
	}

	hasher := b.hasher
	if hasher == nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		hasher = ph
	}

	engine := &Engine{
		config:      cfg,
		store:       store,
		hasher:      hasher,
		tokens:      tm,
		revocations: newRevocationStore(b.redis, cfg.Revocation.RedisPrefix, tm.RemainingLifetime),
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:     NewMetrics(cfg.Metrics),
		logger:      b.logger,
	}
	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

// flowDeps bridges the engine's collaborators into the closure wiring the
// flow runners expect.
func (e *Engine) flowDeps() flows.Deps {
	warn := func(msg string, args ...any) {
		if e.logger != nil {
			e.logger.Warn(msg, args...)
		}
	}
	// Fail-open degradations are counted and audited as well as logged.
	warnFailOpen := func(msg string, args ...any) {
		e.metricInc(MetricCacheFailOpen)
		e.emitAudit(context.Background(), AuditFailOpen, "", true, nil, nil)
		warn(msg, args...)
	}

	createAccess := func(u flows.UserRecord) (string, error) {
		return e.tokens.CreateAccess(recordPayload(u))
	}
	createRefresh := func(u flows.UserRecord) (string, error) {
		return e.tokens.CreateRefresh(recordPayload(u))
	}
	findByID := func(ctx context.Context, id string) (*flows.UserRecord, error) {
		u, err := e.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return userRecord(u), nil
	}

	issue := flows.IssueDeps{
		CreateAccess:    createAccess,
		CreateRefresh:   createRefresh,
		AddRefreshToken: e.store.AddRefreshToken,
	}

	var needsRehash func(string) bool
	if h, ok := e.hasher.(interface{ NeedsRehash(string) bool }); ok && e.config.Password.UpgradeOnLogin {
		needsRehash = h.NeedsRehash
	}

	return flows.Deps{
		Rotate: flows.RotateDeps{
			IsRevoked:          e.revocations.IsRevoked,
			ParseRefresh:       e.tokens.ParseRefresh,
			FindUserByID:       findByID,
			SwapRefreshToken:   e.store.SwapRefreshToken,
			RemoveRefreshToken: e.store.RemoveRefreshToken,
			CreateAccess:       createAccess,
			CreateRefresh:      createRefresh,
			FailOpen:           e.config.Revocation.FailOpen,
			UserNotFound:       ErrUserNotFound,
			StoreUnavailable:   ErrStoreUnavailable,
			Warn:               warnFailOpen,
		},
		Validate: flows.ValidateDeps{
			IsRevoked:   e.revocations.IsRevoked,
			ParseAccess: e.tokens.ParseAccess,
			FailOpen:    e.config.Revocation.FailOpen,
			Warn:        warnFailOpen,
		},
		Logout: flows.LogoutDeps{
			RemoveRefreshToken: e.store.RemoveRefreshToken,
			ListRefreshTokens:  e.store.ListRefreshTokens,
			ClearRefreshTokens: e.store.ClearRefreshTokens,
			RevokeToken:        e.revocations.Revoke,
			RevokeDigest: func(ctx context.Context, digest string) error {
				// Raw token gone, expiry unknowable: hold the entry for the
				// maximum a registered refresh token could still live.
				return e.revocations.RevokeDigest(ctx, digest, e.config.JWT.RefreshTTL)
			},
		},
		Login: flows.LoginDeps{
			FindUserByEmail: func(ctx context.Context, email string) (*flows.UserRecord, error) {
				u, err := e.store.FindByEmail(ctx, email)
				if err != nil {
					return nil, err
				}
				return userRecord(u), nil
			},
			VerifyPassword: e.hasher.Verify,
			IssuePair: func(ctx context.Context, u flows.UserRecord) (string, string, error) {
				return flows.RunIssuePair(ctx, u, issue)
			},
			NeedsRehash: needsRehash,
			Rehash:      e.hasher.Hash,
			UpdateUser: func(ctx context.Context, u *flows.UserRecord) error {
				return e.store.UpdateUser(ctx, recordUser(u))
			},
			UserNotFound:     ErrUserNotFound,
			StoreUnavailable: ErrStoreUnavailable,
			Warn:             warn,
		},
		Account: flows.AccountDeps{
			HashPassword: e.hasher.Hash,
			NewUserID:    uuid.NewString,
			CreateUser: func(ctx context.Context, u *flows.UserRecord) error {
				return e.store.Create(ctx, recordUser(u))
			},
			Now:              time.Now,
			UserExists:       ErrUserExists,
			StoreUnavailable: ErrStoreUnavailable,
		},
		Issue: issue,
	}
}
