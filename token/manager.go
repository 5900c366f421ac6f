package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the signature algorithm for a trust domain.
type SigningMethod string

const (
	// MethodEd25519 signs with Ed25519 key pairs (default).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a symmetric HMAC secret.
	MethodHS256 SigningMethod = "hs256"
)

const (
	// KindAccess marks short-lived request-authorizing tokens.
	KindAccess = "access"
	// KindRefresh marks long-lived rotation tokens.
	KindRefresh = "refresh"
)

var (
	// ErrMalformed wraps every verification failure that is not expiry: bad
	// signature, wrong algorithm, wrong kind, undecodable input.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired wraps verification failures caused by the exp claim.
	ErrExpired = errors.New("token expired")
)

// DomainConfig holds the key material and expiry horizon of one trust
// domain.
type DomainConfig struct {
	SigningMethod SigningMethod
	// PrivateKey is the Ed25519 private key or the HS256 secret.
	PrivateKey []byte
	// PublicKey is the Ed25519 verify key; unused for HS256.
	PublicKey []byte
	TTL       time.Duration
}

// Config wires both trust domains plus shared claim policy.
type Config struct {
	Access  DomainConfig
	Refresh DomainConfig
	Issuer  string
	Leeway  time.Duration
}

// Payload is the claim set embedded in both token kinds.
type Payload struct {
	UserID string
	Email  string
	Role   string
}

// Claims is the decoded form of a verified token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Kind  string `json:"typ"`
	jwt.RegisteredClaims
}

// Payload re-extracts the identity fields from decoded claims. The user id
// travels in the registered subject claim.
func (c *Claims) Payload() Payload {
	return Payload{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   c.Role,
	}
}

// Manager signs and verifies tokens for both domains. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates the configuration and fails fast when a domain's
// signing key is absent. This is the configuration-error gate: a manager
// that constructs successfully can always sign.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if err := validateDomain("access", cfg.Access); err != nil {
		return nil, err
	}
	if err := validateDomain("refresh", cfg.Refresh); err != nil {
		return nil, err
	}
	return &Manager{config: cfg}, nil
}

func validateDomain(name string, d DomainConfig) (err error) {
	if d.TTL <= 0 {
		return fmt.Errorf("%s domain: TTL must be > 0", name)
	}
	switch d.SigningMethod {
	case MethodHS256:
		if len(d.PrivateKey) == 0 {
			return fmt.Errorf("%s domain: hs256 requires secret", name)
		}
	case MethodEd25519:
		if _, err = parseEdPrivateKey(d.PrivateKey); err != nil {
			return fmt.Errorf("%s domain: %w", name, err)
		}
		if _, err = parseEdPublicKey(d.PublicKey); err != nil {
			return fmt.Errorf("%s domain: %w", name, err)
		}
	default:
		return fmt.Errorf("%s domain: unsupported signing method", name)
	}
	return nil
}

// CreateAccess issues a signed access token embedding payload.
func (m *Manager) CreateAccess(p Payload) (string, error) {
	return m.create(p, KindAccess, m.config.Access)
}

// CreateRefresh issues a signed refresh token embedding payload.
func (m *Manager) CreateRefresh(p Payload) (string, error) {
	return m.create(p, KindRefresh, m.config.Refresh)
}

func (m *Manager) create(p Payload, kind string, domain DomainConfig) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: p.Email,
		Role:  p.Role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(domain.TTL)),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	tok := jwt.NewWithClaims(method(domain.SigningMethod), claims)

	signKey, err := signKey(domain)
	if err != nil {
		return "", err
	}
	return tok.SignedString(signKey)
}

// ParseAccess verifies a token against the access domain.
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, KindAccess, m.config.Access)
}

// ParseRefresh verifies a token against the refresh domain.
func (m *Manager) ParseRefresh(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, KindRefresh, m.config.Refresh)
}

func (m *Manager) parse(tokenStr, kind string, domain DomainConfig) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method(domain.SigningMethod).Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return verifyKey(domain)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	// Cross-domain separation is enforced by the independent keys; the kind
	// claim catches deployments that configured both domains with one secret.
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: wrong token kind", ErrMalformed)
	}

	return claims, nil
}

// RemainingLifetime reads the embedded expiry without verifying the
// signature and reports how long the token would naturally stay valid.
// Unparseable or already-expired tokens report zero. Callers must not treat
// the result as proof of validity; it exists to bound revocation-cache TTLs.
func (m *Manager) RemainingLifetime(tokenStr string) time.Duration {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func method(sm SigningMethod) jwt.SigningMethod {
	switch sm {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func signKey(domain DomainConfig) (interface{}, error) {
	switch domain.SigningMethod {
	case MethodHS256:
		return domain.PrivateKey, nil
	default:
		return parseEdPrivateKey(domain.PrivateKey)
	}
}

func verifyKey(domain DomainConfig) (interface{}, error) {
	switch domain.SigningMethod {
	case MethodHS256:
		return domain.PrivateKey, nil
	default:
		return parseEdPublicKey(domain.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
