package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterMinuteLimit(t *testing.T) {
	l := NewLimiter(3, 0, 0, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow("1.2.3.4", 0), "request %d", i)
	}

	err := l.Allow("1.2.3.4", 0)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "minute", rle.Type)
	assert.Equal(t, 3, rle.Limit)

	// Another client is unaffected.
	assert.NoError(t, l.Allow("5.6.7.8", 0))
}

func TestLimiterDailyRequestQuota(t *testing.T) {
	l := NewLimiter(0, 0, 2, 0)

	require.NoError(t, l.Allow("1.2.3.4", 0))
	require.NoError(t, l.Allow("1.2.3.4", 0))

	err := l.Allow("1.2.3.4", 0)
	var qee *QuotaExceededError
	require.ErrorAs(t, err, &qee)
	assert.Equal(t, "requests", qee.Type)
	assert.EqualValues(t, 2, qee.Used)
}

func TestLimiterDataQuota(t *testing.T) {
	l := NewLimiter(0, 0, 0, 1000)

	require.NoError(t, l.Allow("1.2.3.4", 600))

	err := l.Allow("1.2.3.4", 600)
	var qee *QuotaExceededError
	require.ErrorAs(t, err, &qee)
	assert.Equal(t, "data", qee.Type)
	assert.EqualValues(t, 1000, qee.Limit)
	assert.EqualValues(t, 600, qee.Used)

	// A smaller upload still fits under the quota.
	assert.NoError(t, l.Allow("1.2.3.4", 300))
}

func TestLimiterZeroLimitsDisableChecks(t *testing.T) {
	l := NewLimiter(0, 0, 0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Allow("1.2.3.4", 1<<20))
	}
}

func TestLimiterErrorsAreDistinct(t *testing.T) {
	var rle *RateLimitError
	var qee *QuotaExceededError
	err := error(&RateLimitError{Type: "hour", Limit: 10})
	assert.True(t, errors.As(err, &rle))
	assert.False(t, errors.As(err, &qee))
}
