package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/selvahq/go-identity"
)

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	user := seedUser(t, repo, "pepe@example.com", "+12125551234", "super-secret-password", true)

	refreshTTL := 24 * time.Hour

	// consumed verification token older than the refresh TTL: swept
	_, err := repo.Tokens().CreateVerification(ctx, user.ID, "stale-consumed")
	require.NoError(t, err)
	_, err = repo.Tokens().Consume(ctx, "stale-consumed")
	require.NoError(t, err)
	backdateToken(t, db, "stale-consumed", time.Now().Add(-refreshTTL-time.Hour))

	// blacklist marker younger than the refresh TTL: kept, the refresh
	// token it revokes is still within its lifetime
	fresh, err := repo.Tokens().BlacklistOnce(ctx, user.ID, "live-marker")
	require.NoError(t, err)
	require.True(t, fresh)

	// live verification token: kept
	_, err = repo.Tokens().CreateVerification(ctx, user.ID, "pending-verification")
	require.NoError(t, err)

	// expired passcode: swept
	staleOtp, err := repo.Otps().CreateForUser(ctx, user.ID, "111111")
	require.NoError(t, err)
	backdateOtp(t, db, staleOtp.ID.String(), time.Now().Add(-identity.OtpTTL-time.Minute))

	// live passcode: kept
	_, err = repo.Otps().CreateForUser(ctx, user.ID, "222222")
	require.NoError(t, err)

	sweeper := identity.NewSweeper(repo, refreshTTL).WithLogger(noopLogger{})
	sweeper.Sweep(ctx)

	tokenCount, err := db.NewSelect().Model((*identity.Token)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tokenCount)

	otpCount, err := db.NewSelect().Model((*identity.Otp)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, otpCount)

	// replay protection survives the sweep
	fresh, err = repo.Tokens().BlacklistOnce(ctx, user.ID, "live-marker")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSweeper_Run(t *testing.T) {
	db := setupTestDB(t)
	repo := identity.NewRepositoryManager(db)
	user := seedUser(t, repo, "pepe@example.com", "+12125551234", "super-secret-password", true)

	ctx, cancel := context.WithCancel(context.Background())

	staleOtp, err := repo.Otps().CreateForUser(ctx, user.ID, "111111")
	require.NoError(t, err)
	backdateOtp(t, db, staleOtp.ID.String(), time.Now().Add(-time.Hour))

	sweeper := identity.NewSweeper(repo, 24*time.Hour).
		WithInterval(10 * time.Millisecond).
		WithLogger(noopLogger{})

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		count, err := db.NewSelect().Model((*identity.Otp)(nil)).Count(context.Background())
		return err == nil && count == 0
	}, time.Second, 20*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
