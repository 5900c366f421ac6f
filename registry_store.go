package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cferrel/authcore/registry"
)

// registryStore adapts the Redis registry to the IdentityStore contract.
// The registry package stays free of root types; this adapter converts
// records and translates its sentinels into the public error vocabulary.
type registryStore struct {
	inner *registry.Store
}

var _ IdentityStore = (*registryStore)(nil)

func newRegistryStore(inner *registry.Store) *registryStore {
	return &registryStore{inner: inner}
}

func (rs *registryStore) Create(ctx context.Context, user *User) error {
	return registryErr(rs.inner.Create(ctx, toRecord(user)))
}

func (rs *registryStore) FindByID(ctx context.Context, id string) (*User, error) {
	rec, err := rs.inner.FindByID(ctx, id)
	if err != nil {
		return nil, registryErr(err)
	}
	return fromRecord(rec)
}

func (rs *registryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	rec, err := rs.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, registryErr(err)
	}
	return fromRecord(rec)
}

func (rs *registryStore) UpdateUser(ctx context.Context, user *User) error {
	return registryErr(rs.inner.UpdateUser(ctx, toRecord(user)))
}

func (rs *registryStore) AddRefreshToken(ctx context.Context, userID, token string) error {
	return registryErr(rs.inner.AddRefreshToken(ctx, userID, token))
}

func (rs *registryStore) RemoveRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	removed, err := rs.inner.RemoveRefreshToken(ctx, userID, token)
	return removed, registryErr(err)
}

func (rs *registryStore) SwapRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	swapped, err := rs.inner.SwapRefreshToken(ctx, userID, oldToken, newToken)
	return swapped, registryErr(err)
}

func (rs *registryStore) ListRefreshTokens(ctx context.Context, userID string) ([]string, error) {
	digests, err := rs.inner.ListRefreshTokens(ctx, userID)
	return digests, registryErr(err)
}

func (rs *registryStore) ClearRefreshTokens(ctx context.Context, userID string) error {
	return registryErr(rs.inner.ClearRefreshTokens(ctx, userID))
}

func toRecord(user *User) *registry.Record {
	return &registry.Record{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		Role:         uint8(user.Role),
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func fromRecord(rec *registry.Record) (*User, error) {
	role := Role(rec.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: corrupt role field", ErrStoreUnavailable)
	}
	return &User{
		ID:           rec.ID,
		Email:        rec.Email,
		DisplayName:  rec.DisplayName,
		PasswordHash: rec.PasswordHash,
		Role:         role,
		Active:       rec.Active,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func registryErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registry.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, registry.ErrDuplicateEmail):
		return ErrUserExists
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
