package service

import (
	"fmt"
	"time"
)

// CheckIssuanceBudget applies the shared throttling rule for verification
// and password-reset emails: at most maxActive unconsumed, unexpired
// records may exist per identity. When the budget is exhausted it returns
// a *RateLimitedError whose RetryAfter is the remaining life of the
// soonest-expiring active record, floored at two seconds.
func CheckIssuanceBudget(now time.Time, activeExpirations []time.Time, maxActive int) error {
	if maxActive <= 0 || len(activeExpirations) < maxActive {
		return nil
	}
	next := activeExpirations[0]
	for _, expiry := range activeExpirations[1:] {
		if expiry.Before(next) {
			next = expiry
		}
	}
	retryAfter := next.Sub(now)
	if retryAfter < 2*time.Second {
		retryAfter = 2 * time.Second
	}
	return &RateLimitedError{RetryAfter: retryAfter}
}

// FormatRetryDelay renders a delay in the coarsest sensible unit, rounded
// up: seconds under two minutes, minutes under two hours, hours under two
// days, days beyond that.
func FormatRetryDelay(delay time.Duration) string {
	seconds := int64(delay.Seconds())
	if seconds < 2 {
		seconds = 2
	}
	switch {
	case seconds < 120:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 7200:
		return fmt.Sprintf("%d minutes", seconds/60+1)
	case seconds < 2*86400:
		return fmt.Sprintf("%d hours", seconds/3600+1)
	default:
		return fmt.Sprintf("%d days", seconds/86400+1)
	}
}
