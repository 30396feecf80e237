package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt64(t *testing.T) {
	n, err := toInt64(int64(3))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = toInt64("12")
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)

	_, err = toInt64(1.5)
	assert.Error(t, err)
}

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(nil, 0, 0, " ")
	assert.Equal(t, 10, rl.limit)
	assert.Equal(t, "rl", rl.prefix)
	assert.Positive(t, rl.window)
}
