package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/selvahq/go-identity"
)

func TestTokensRepository_Consume(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes a valid token once", func(t *testing.T) {
		repo := identity.NewRepositoryManager(setupTestDB(t))
		user := seedUser(t, repo, "pepe@example.com", "+12125551234", "super-secret-password", false)

		created, err := repo.Tokens().CreateVerification(ctx, user.ID, "raw-verification-token")
		require.NoError(t, err)
		assert.True(t, created.IsValid)

		consumed, err := repo.Tokens().Consume(ctx, "raw-verification-token")
		require.NoError(t, err)
		assert.False(t, consumed.IsValid)
		assert.Equal(t, user.ID, consumed.UserID)
	})

	t.Run("second consumption fails like an unknown token", func(t *testing.T) {
		repo := identity.NewRepositoryManager(setupTestDB(t))
		user := seedUser(t, repo, "pepe@example.com", "+12125551234", "super-secret-password", false)

		_, err := repo.Tokens().CreateVerification(ctx, user.ID, "raw-verification-token")
		require.NoError(t, err)

		_, err = repo.Tokens().Consume(ctx, "raw-verification-token")
		require.NoError(t, err)

		_, replayErr := repo.Tokens().Consume(ctx, "raw-verification-token")
		_, unknownErr := repo.Tokens().Consume(ctx, "never-issued")

		assert.ErrorIs(t, replayErr, identity.ErrInvalidToken)
		assert.ErrorIs(t, unknownErr, identity.ErrInvalidToken)
		assert.Equal(t, replayErr.Error(), unknownErr.Error())
	})
}

func TestTokensRepository_BlacklistOnce(t *testing.T) {
	ctx := context.Background()
	repo := identity.NewRepositoryManager(setupTestDB(t))
	user := seedUser(t, repo, "pepe@example.com", "+12125551234", "super-secret-password", true)

	fresh, err := repo.Tokens().BlacklistOnce(ctx, user.ID, "jti-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	// the same token id can only ever be claimed once
	fresh, err = repo.Tokens().BlacklistOnce(ctx, user.ID, "jti-1")
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = repo.Tokens().BlacklistOnce(ctx, user.ID, "jti-2")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestTokensRepository_DeleteInvalidBefore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	user := seedUser(t, repo, "pepe@example.com", "+12125551234", "super-secret-password", true)

	// old consumed verification token: swept
	_, err := repo.Tokens().CreateVerification(ctx, user.ID, "old-consumed")
	require.NoError(t, err)
	_, err = repo.Tokens().Consume(ctx, "old-consumed")
	require.NoError(t, err)
	backdateToken(t, db, "old-consumed", time.Now().Add(-48*time.Hour))

	// young blacklist marker: kept, it still blocks a live refresh token
	fresh, err := repo.Tokens().BlacklistOnce(ctx, user.ID, "young-marker")
	require.NoError(t, err)
	require.True(t, fresh)

	// valid verification token: kept regardless of age
	_, err = repo.Tokens().CreateVerification(ctx, user.ID, "still-valid")
	require.NoError(t, err)
	backdateToken(t, db, "still-valid", time.Now().Add(-48*time.Hour))

	deleted, err := repo.Tokens().DeleteInvalidBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	count, err := db.NewSelect().Model((*identity.Token)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// the young marker still prevents reuse
	fresh, err = repo.Tokens().BlacklistOnce(ctx, user.ID, "young-marker")
	require.NoError(t, err)
	assert.False(t, fresh)
}
