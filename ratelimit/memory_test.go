package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewMemoryLimiter(map[string]Rate{
		ScopeLogin: {Requests: 2, Window: time.Minute},
	}, Rate{Requests: 100, Window: time.Minute})

	key := ScopeLogin + ":10.0.0.1"

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, key, now)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should fit the window", i+1)
	}

	allowed, retry, err := limiter.Allow(ctx, key, now.Add(10*time.Second))
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 50*time.Second, retry)
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewMemoryLimiter(map[string]Rate{
		ScopeForgot: {Requests: 1, Window: time.Minute},
	}, Rate{})

	key := ScopeForgot + ":10.0.0.2"

	allowed, _, err := limiter.Allow(ctx, key, now)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, key, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, err = limiter.Allow(ctx, key, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, allowed, "new window should admit requests again")
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	limiter := NewMemoryLimiter(map[string]Rate{
		ScopeLogin: {Requests: 1, Window: time.Minute},
	}, Rate{})

	allowed, _, err := limiter.Allow(ctx, ScopeLogin+":10.0.0.1", now)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, ScopeLogin+":10.0.0.2", now)
	require.NoError(t, err)
	assert.True(t, allowed, "a different client must not share the budget")
}

func TestMemoryLimiter_ZeroRateAllowsAll(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(map[string]Rate{}, Rate{})

	for i := 0; i < 50; i++ {
		allowed, _, err := limiter.Allow(ctx, "anything:10.0.0.1", time.Now())
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
