package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/selvahq/go-identity"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	t.Run("recent time is within threshold", func(t *testing.T) {
		within, err := identity.IsWithinThresholdPeriod(time.Now().Add(-time.Hour), "24h")

		require.NoError(t, err)
		assert.True(t, within)
	})

	t.Run("old time is outside threshold", func(t *testing.T) {
		within, err := identity.IsWithinThresholdPeriod(time.Now().Add(-25*time.Hour), "24h")

		require.NoError(t, err)
		assert.False(t, within)
	})

	t.Run("bad pattern errors", func(t *testing.T) {
		_, err := identity.IsWithinThresholdPeriod(time.Now(), "not-a-duration")
		assert.Error(t, err)
	})
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	t.Run("negates the within check", func(t *testing.T) {
		outside, err := identity.IsOutsideThresholdPeriod(time.Now().Add(-25*time.Hour), "24h")

		require.NoError(t, err)
		assert.True(t, outside)

		outside, err = identity.IsOutsideThresholdPeriod(time.Now().Add(-time.Hour), "24h")

		require.NoError(t, err)
		assert.False(t, outside)
	})

	t.Run("bad pattern errors", func(t *testing.T) {
		_, err := identity.IsOutsideThresholdPeriod(time.Now(), "not-a-duration")
		assert.Error(t, err)
	})
}
