package identity_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	identity "github.com/selvahq/go-identity"
)

// setupTestDB opens a private in-memory SQLite database with the schema
// applied. One connection max so the :memory: database is stable.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, identity.EnsureSchema(context.Background(), db))

	t.Cleanup(func() { db.Close() })

	return db
}

func seedUser(t *testing.T, repo identity.RepositoryManager, email, phone, password string, active bool) *identity.User {
	t.Helper()

	hash, err := identity.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &identity.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		IsActive:     active,
	})
	require.NoError(t, err)

	return user
}

// backdateOtp rewrites created_at so expiry paths can be exercised.
func backdateOtp(t *testing.T, db *bun.DB, otpID string, createdAt time.Time) {
	t.Helper()

	_, err := db.NewUpdate().Model((*identity.Otp)(nil)).
		Set("created_at = ?", createdAt).
		Where("id = ?", otpID).
		Exec(context.Background())
	require.NoError(t, err)
}

// backdateToken rewrites a token row's created_at for sweeper tests.
func backdateToken(t *testing.T, db *bun.DB, token string, createdAt time.Time) {
	t.Helper()

	_, err := db.NewUpdate().Model((*identity.Token)(nil)).
		Set("created_at = ?", createdAt).
		Where("token = ?", token).
		Exec(context.Background())
	require.NoError(t, err)
}
