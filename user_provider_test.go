package identity_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/selvahq/go-identity"
)

// fakeUserStore is an in-memory UserTracker so provider behavior can be
// tested without a database.
type fakeUserStore struct {
	users    map[string]*identity.User
	attempts int
	logins   int
}

func newFakeUserStore(users ...*identity.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]*identity.User{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return user, nil
}

func (s *fakeUserStore) TrackAttemptedLogin(_ context.Context, user *identity.User) error {
	s.attempts++
	stored := s.users[user.Email]
	stored.LoginAttempts++
	now := time.Now()
	stored.LoginAttemptAt = &now
	return nil
}

func (s *fakeUserStore) TrackSuccessfulLogin(_ context.Context, user *identity.User) error {
	s.logins++
	stored := s.users[user.Email]
	stored.LoginAttempts = 0
	stored.LoginAttemptAt = nil
	return nil
}

func activeUser(t *testing.T, email, password string) *identity.User {
	t.Helper()

	hash, err := identity.HashPassword(password)
	require.NoError(t, err)

	return &identity.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
}

func TestUserProvider_VerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the identity for valid credentials", func(t *testing.T) {
		user := activeUser(t, "pepe@example.com", "super-secret-password")
		store := newFakeUserStore(user)
		provider := identity.NewUserProvider(store).WithLogger(noopLogger{})

		id, err := provider.VerifyIdentity(ctx, "pepe@example.com", "super-secret-password")

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), id.ID())
		assert.Equal(t, "pepe@example.com", id.Email())
		assert.Equal(t, 1, store.logins)
	})

	t.Run("unknown email fails with the uniform error", func(t *testing.T) {
		provider := identity.NewUserProvider(newFakeUserStore()).WithLogger(noopLogger{})

		id, err := provider.VerifyIdentity(ctx, "nobody@example.com", "whatever")

		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
		assert.Nil(t, id)
	})

	t.Run("wrong password fails with the uniform error and counts the attempt", func(t *testing.T) {
		user := activeUser(t, "pepe@example.com", "super-secret-password")
		store := newFakeUserStore(user)
		provider := identity.NewUserProvider(store).WithLogger(noopLogger{})

		id, err := provider.VerifyIdentity(ctx, "pepe@example.com", "wrong-password")

		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
		assert.Nil(t, id)
		assert.Equal(t, 1, store.attempts)
	})

	t.Run("inactive account fails with the uniform error", func(t *testing.T) {
		user := activeUser(t, "pepe@example.com", "super-secret-password")
		user.IsActive = false
		provider := identity.NewUserProvider(newFakeUserStore(user)).WithLogger(noopLogger{})

		id, err := provider.VerifyIdentity(ctx, "pepe@example.com", "super-secret-password")

		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
		assert.Nil(t, id)
	})

	t.Run("too many recent attempts triggers the cooldown", func(t *testing.T) {
		user := activeUser(t, "pepe@example.com", "super-secret-password")
		now := time.Now()
		user.LoginAttempts = identity.MaxLoginAttempts + 1
		user.LoginAttemptAt = &now
		provider := identity.NewUserProvider(newFakeUserStore(user)).WithLogger(noopLogger{})

		id, err := provider.VerifyIdentity(ctx, "pepe@example.com", "super-secret-password")

		assert.ErrorIs(t, err, identity.ErrTooManyLoginAttempts)
		assert.Nil(t, id)
	})

	t.Run("attempt counter resets after the cooldown period", func(t *testing.T) {
		user := activeUser(t, "pepe@example.com", "super-secret-password")
		stale := time.Now().Add(-25 * time.Hour)
		user.LoginAttempts = identity.MaxLoginAttempts + 1
		user.LoginAttemptAt = &stale
		provider := identity.NewUserProvider(newFakeUserStore(user)).WithLogger(noopLogger{})

		id, err := provider.VerifyIdentity(ctx, "pepe@example.com", "super-secret-password")

		require.NoError(t, err)
		assert.NotNil(t, id)
	})
}

func TestUserProvider_FindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("finds an identity by email", func(t *testing.T) {
		user := activeUser(t, "pepe@example.com", "super-secret-password")
		user.IsAdmin = true
		provider := identity.NewUserProvider(newFakeUserStore(user)).WithLogger(noopLogger{})

		id, err := provider.FindIdentityByIdentifier(ctx, "pepe@example.com")

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), id.ID())
		assert.True(t, id.IsAdmin())
		assert.False(t, id.IsSuperuser())
	})

	t.Run("propagates not found", func(t *testing.T) {
		provider := identity.NewUserProvider(newFakeUserStore()).WithLogger(noopLogger{})

		id, err := provider.FindIdentityByIdentifier(ctx, "nobody@example.com")

		assert.Error(t, err)
		assert.Nil(t, id)
	})
}
