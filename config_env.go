package authcore

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the deployment-tunable subset of Config. Key material
// is referenced by file path; the raw bytes never live in the environment.
type envConfig struct {
	SigningMethod      string        `env:"JWT_SIGNING_METHOD" envDefault:"ed25519"`
	AccessPrivateFile  string        `env:"JWT_ACCESS_PRIVATE_KEY_FILE"`
	AccessPublicFile   string        `env:"JWT_ACCESS_PUBLIC_KEY_FILE"`
	RefreshPrivateFile string        `env:"JWT_REFRESH_PRIVATE_KEY_FILE"`
	RefreshPublicFile  string        `env:"JWT_REFRESH_PUBLIC_KEY_FILE"`
	AccessTTL          time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL         time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
	Issuer             string        `env:"JWT_ISSUER" envDefault:"authcore"`
	Leeway             time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`

	RevocationPrefix   string `env:"REVOCATION_PREFIX" envDefault:"arv"`
	RevocationFailOpen bool   `env:"REVOCATION_FAIL_OPEN" envDefault:"false"`

	RegistryPrefix string `env:"REGISTRY_PREFIX" envDefault:"ar"`

	AuditEnabled   bool `env:"AUDIT_ENABLED" envDefault:"false"`
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"false"`
}

// ConfigFromEnv builds a Config from AUTHCORE_-prefixed environment
// variables layered over DefaultConfig. Argon2 parameters stay at their
// defaults; tune those in code if a deployment truly needs to.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: "AUTHCORE_"}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg := DefaultConfig()
	cfg.JWT.SigningMethod = ec.SigningMethod
	cfg.JWT.AccessTTL = ec.AccessTTL
	cfg.JWT.RefreshTTL = ec.RefreshTTL
	cfg.JWT.Issuer = ec.Issuer
	cfg.JWT.Leeway = ec.Leeway
	cfg.Revocation.RedisPrefix = ec.RevocationPrefix
	cfg.Revocation.FailOpen = ec.RevocationFailOpen
	cfg.Registry.RedisPrefix = ec.RegistryPrefix
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Metrics.Enabled = ec.MetricsEnabled

	var err error
	if cfg.JWT.AccessPrivateKey, err = readKeyFile(ec.AccessPrivateFile); err != nil {
		return Config{}, err
	}
	if cfg.JWT.AccessPublicKey, err = readKeyFile(ec.AccessPublicFile); err != nil {
		return Config{}, err
	}
	if cfg.JWT.RefreshPrivateKey, err = readKeyFile(ec.RefreshPrivateFile); err != nil {
		return Config{}, err
	}
	if cfg.JWT.RefreshPublicKey, err = readKeyFile(ec.RefreshPublicFile); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func readKeyFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return b, nil
}
