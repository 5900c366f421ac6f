package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/cferrel/authcore/token"
)

// Config carries every tunable of the engine. Populate it once before
// Build; the engine clones it and never reads the caller's copy again.
type Config struct {
	JWT        JWTConfig
	Revocation RevocationConfig
	Registry   RegistryConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures both signing domains. Access and refresh tokens use
// independent key material so that a compromised access key can never mint
// refresh tokens, and vice versa.
type JWTConfig struct {
	SigningMethod string // "ed25519" (default) or "hs256"

	// PEM-encoded ed25519 keys, or raw HMAC secrets under hs256.
	AccessPrivateKey  []byte
	AccessPublicKey   []byte
	RefreshPrivateKey []byte
	RefreshPublicKey  []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls the denylist cache.
//
// FailOpen decides what happens when the cache itself is unreachable during
// a revocation check: false (the default) rejects the request, true lets
// signature verification alone decide and logs the degradation. Flip it only
// when availability genuinely outranks revocation latency.
type RevocationConfig struct {
	RedisPrefix string
	FailOpen    bool
}

/*
====================================
REGISTRY CONFIG
====================================
*/

// RegistryConfig applies when the engine builds its own Redis-backed
// identity store. Ignored when the caller supplies one via WithIdentityStore.
type RegistryConfig struct {
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines audit dispatcher behavior.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines metrics collection behavior.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns production-leaning defaults. Key material is never
// defaulted; Validate rejects a config whose keys were left empty.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "ed25519",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    720 * time.Hour,
			Issuer:        "authcore",
			Leeway:        30 * time.Second,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "arv",
			FailOpen:    false,
		},
		Registry: RegistryConfig{
			RedisPrefix: "ar",
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessPrivateKey = cloneBytes(cfg.JWT.AccessPrivateKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPrivateKey = cloneBytes(cfg.JWT.RefreshPrivateKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects any configuration the engine cannot run with. It is
// called during Build so that key problems surface at startup, never on a
// request path.
func (c *Config) Validate() error {
	if err := c.JWT.validate(); err != nil {
		return err
	}
	if err := c.Password.validate(); err != nil {
		return err
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit BufferSize must be positive when audit is enabled")
	}
	return nil
}

func (jc *JWTConfig) validate() error {
	switch {
	case jc.AccessTTL <= 0:
		return errors.New("AccessTTL must be positive")
	case jc.RefreshTTL <= 0:
		return errors.New("RefreshTTL must be positive")
	case jc.RefreshTTL <= jc.AccessTTL:
		return errors.New("RefreshTTL must exceed AccessTTL")
	case jc.Leeway < 0:
		return errors.New("Leeway cannot be negative")
	}

	switch jc.SigningMethod {
	case "ed25519":
		if len(jc.AccessPublicKey) == 0 {
			return errors.New("ed25519 needs AccessPublicKey")
		}
		if len(jc.RefreshPublicKey) == 0 {
			return errors.New("ed25519 needs RefreshPublicKey")
		}
	case "hs256":
	default:
		return fmt.Errorf("unknown signing method %q", jc.SigningMethod)
	}

	if len(jc.AccessPrivateKey) == 0 {
		return errors.New("AccessPrivateKey was not set")
	}
	if len(jc.RefreshPrivateKey) == 0 {
		return errors.New("RefreshPrivateKey was not set")
	}
	return nil
}

// validate mirrors the password package's lower bounds so that a weak cost
// profile is caught at Build rather than on the first Hash call.
func (pc *PasswordConfig) validate() error {
	switch {
	case pc.Memory < 8*1024:
		return errors.New("password Memory below the 8192 KB floor")
	case pc.Time < 1:
		return errors.New("password Time below the minimum of 1")
	case pc.Parallelism < 1:
		return errors.New("password Parallelism below the minimum of 1")
	case pc.SaltLength < 16:
		return errors.New("password SaltLength below the 16 byte floor")
	case pc.KeyLength < 16:
		return errors.New("password KeyLength below the 16 byte floor")
	}
	return nil
}

func (c *Config) signingMethod() token.SigningMethod {
	if c.JWT.SigningMethod == "hs256" {
		return token.MethodHS256
	}
	return token.MethodEd25519
}

func (c *Config) tokenConfig() token.Config {
	return token.Config{
		Access: token.DomainConfig{
			SigningMethod: c.signingMethod(),
			PrivateKey:    c.JWT.AccessPrivateKey,
			PublicKey:     c.JWT.AccessPublicKey,
			TTL:           c.JWT.AccessTTL,
		},
		Refresh: token.DomainConfig{
			SigningMethod: c.signingMethod(),
			PrivateKey:    c.JWT.RefreshPrivateKey,
			PublicKey:     c.JWT.RefreshPublicKey,
			TTL:           c.JWT.RefreshTTL,
		},
		Issuer: c.JWT.Issuer,
		Leeway: c.JWT.Leeway,
	}
}
