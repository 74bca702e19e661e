package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUsernameNotEmail       = errors.New("username must be a valid email address")
	ErrUsernameTaken          = errors.New("user with this username already exists")
	ErrInvalidCredentials     = errors.New("incorrect username or password")
	ErrNotVerified            = errors.New("email address has not been verified")
	ErrAlreadyVerified        = errors.New("user is already verified")
	ErrRevokedToken           = errors.New("refresh token has been revoked")
	ErrMalformedToken         = errors.New("malformed token")
	ErrVerificationNotFound   = errors.New("verification failed")
	ErrTokenUsed              = errors.New("this verification link has been used already")
	ErrTokenExpired           = errors.New("verification link has expired")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailSenderUnavailable = errors.New("email sender not configured")

	// ErrEmailDispatch marks transport failures from the email boundary.
	// The token may never arrive, so the caller has to see this.
	ErrEmailDispatch = errors.New("failed to send email")
)

// RateLimitedError is returned when an identity already has the maximum
// number of active verification records. RetryAfter is the time until the
// soonest of them expires.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf(
		"multiple emails have already been sent, please check your spam and try again in %s",
		FormatRetryDelay(e.RetryAfter),
	)
}
