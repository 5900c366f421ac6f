package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cferrel/authcore/internal"
)

const defaultPrefix = "ar"

// Sentinel failures of the store. The root package translates these into
// its public error vocabulary at the boundary.
var (
	ErrNotFound       = errors.New("registry: user not found")
	ErrDuplicateEmail = errors.New("registry: email already claimed")
	ErrUnavailable    = errors.New("registry: redis unavailable")
)

// Record is the registry's own view of a stored user. Role is an opaque
// byte here; interpreting it is the caller's business.
type Record struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         uint8
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createUserScript = `
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2],
  "email", ARGV[2],
  "name", ARGV[3],
  "pwhash", ARGV[4],
  "role", ARGV[5],
  "active", ARGV[6],
  "created", ARGV[7],
  "updated", ARGV[8])
return 1
`

var createUserLua = redis.NewScript(createUserScript)

const swapTokenScript = `
if redis.call("SREM", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("SADD", KEYS[1], ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`

var swapTokenLua = redis.NewScript(swapTokenScript)

// Store keeps user records and refresh-token sets in Redis.
type Store struct {
	redis      *redis.Client
	prefix     string
	refreshTTL time.Duration
}

// NewStore creates a registry on the given client. refreshTTL bounds the
// lifetime of each user's refresh-token set key; it should match the
// refresh domain TTL so orphaned tokens die with their signatures.
func NewStore(redisClient *redis.Client, prefix string, refreshTTL time.Duration) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:      redisClient,
		prefix:     prefix,
		refreshTTL: refreshTTL,
	}
}

func (s *Store) userKey(id string) string {
	return s.prefix + ":user:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *Store) tokenKey(userID string) string {
	return s.prefix + ":rt:" + userID
}

// Create persists a new user and claims its email atomically. A taken email
// reports ErrDuplicateEmail without touching the record.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	email := normalizeEmail(rec.Email)
	res, err := createUserLua.Run(ctx, s.redis,
		[]string{s.emailKey(email), s.userKey(rec.ID)},
		rec.ID,
		email,
		rec.DisplayName,
		rec.PasswordHash,
		strconv.Itoa(int(rec.Role)),
		boolField(rec.Active),
		strconv.FormatInt(rec.CreatedAt.Unix(), 10),
		strconv.FormatInt(rec.UpdatedAt.Unix(), 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

// FindByID loads a user record; missing ids report ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*Record, error) {
	fields, err := s.redis.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeRecord(id, fields)
}

// FindByEmail resolves the email index and loads the record.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Record, error) {
	id, err := s.redis.Get(ctx, s.emailKey(normalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// UpdateUser rewrites the mutable fields of an existing record. The email
// (and its index entry) is immutable in this store.
func (s *Store) UpdateUser(ctx context.Context, rec *Record) error {
	key := s.userKey(rec.ID)
	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	err = s.redis.HSet(ctx, key,
		"name", rec.DisplayName,
		"pwhash", rec.PasswordHash,
		"role", strconv.Itoa(int(rec.Role)),
		"active", boolField(rec.Active),
		"updated", strconv.FormatInt(time.Now().Unix(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// AddRefreshToken registers a token digest in the user's set and re-arms
// the set TTL.
func (s *Store) AddRefreshToken(ctx context.Context, userID, token string) error {
	key := s.tokenKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.SAdd(ctx, key, internal.TokenDigest(token))
	if s.refreshTTL > 0 {
		pipe.PExpire(ctx, key, s.refreshTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RemoveRefreshToken drops a token digest; false means it was not
// registered (already consumed, logged out, or foreign).
func (s *Store) RemoveRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	n, err := s.redis.SRem(ctx, s.tokenKey(userID), internal.TokenDigest(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

// SwapRefreshToken conditionally replaces oldToken's digest with
// newToken's in one atomic script. Exactly one of N concurrent callers
// presenting the same oldToken observes true.
func (s *Store) SwapRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	ttl := s.refreshTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	res, err := swapTokenLua.Run(ctx, s.redis,
		[]string{s.tokenKey(userID)},
		internal.TokenDigest(oldToken),
		internal.TokenDigest(newToken),
		strconv.FormatInt(ttl.Milliseconds(), 10),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res == 1, nil
}

// ListRefreshTokens returns the registered digests.
func (s *Store) ListRefreshTokens(ctx context.Context, userID string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, s.tokenKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return members, nil
}

// ClearRefreshTokens drops the whole set.
func (s *Store) ClearRefreshTokens(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func decodeRecord(id string, fields map[string]string) (*Record, error) {
	role, err := strconv.ParseUint(fields["role"], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt role field", ErrUnavailable)
	}
	created, _ := strconv.ParseInt(fields["created"], 10, 64)
	updated, _ := strconv.ParseInt(fields["updated"], 10, 64)

	return &Record{
		ID:           id,
		Email:        fields["email"],
		DisplayName:  fields["name"],
		PasswordHash: fields["pwhash"],
		Role:         uint8(role),
		Active:       fields["active"] == "1",
		CreatedAt:    time.Unix(created, 0),
		UpdatedAt:    time.Unix(updated, 0),
	}, nil
}
