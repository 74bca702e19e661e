package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIssuanceBudgetAllowsUnderMax(t *testing.T) {
	now := time.Now()
	expirations := []time.Time{now.Add(time.Hour), now.Add(2 * time.Hour)}

	assert.NoError(t, CheckIssuanceBudget(now, expirations, 3))
	assert.NoError(t, CheckIssuanceBudget(now, nil, 3))
}

func TestCheckIssuanceBudgetDeniesAtMax(t *testing.T) {
	now := time.Now()
	expirations := []time.Time{
		now.Add(3 * time.Hour),
		now.Add(45 * time.Minute),
		now.Add(2 * time.Hour),
	}

	err := CheckIssuanceBudget(now, expirations, 3)
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	// Retry delay follows the soonest-expiring active record.
	assert.Equal(t, 45*time.Minute, rateLimited.RetryAfter)
	assert.Contains(t, rateLimited.Error(), "minutes")
}

func TestCheckIssuanceBudgetFloorsRetryDelay(t *testing.T) {
	now := time.Now()
	expirations := []time.Time{now.Add(time.Millisecond), now, now.Add(-time.Second)}

	err := CheckIssuanceBudget(now, expirations, 3)
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 2*time.Second, rateLimited.RetryAfter)
}

func TestCheckIssuanceBudgetZeroMaxDisablesThrottle(t *testing.T) {
	now := time.Now()
	expirations := []time.Time{now.Add(time.Hour)}

	assert.NoError(t, CheckIssuanceBudget(now, expirations, 0))
}

func TestFormatRetryDelayUnits(t *testing.T) {
	cases := []struct {
		delay time.Duration
		want  string
	}{
		{time.Second, "2 seconds"},
		{30 * time.Second, "30 seconds"},
		{119 * time.Second, "119 seconds"},
		{120 * time.Second, "3 minutes"},
		{45 * time.Minute, "46 minutes"},
		{119 * time.Minute, "120 minutes"},
		{2 * time.Hour, "3 hours"},
		{36 * time.Hour, "37 hours"},
		{47 * time.Hour, "48 hours"},
		{48 * time.Hour, "3 days"},
		{10 * 24 * time.Hour, "11 days"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRetryDelay(tc.delay), "delay %s", tc.delay)
	}
}

func TestRateLimitedErrorIsErrorsAsCompatible(t *testing.T) {
	var err error = &RateLimitedError{RetryAfter: 10 * time.Second}

	var rateLimited *RateLimitedError
	assert.True(t, errors.As(err, &rateLimited))
	assert.Contains(t, err.Error(), "10 seconds")
}
