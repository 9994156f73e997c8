package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the submitted url is missing or not a valid URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidAliasFormat is returned when a custom alias contains characters
	// outside of letters, digits, dashes and underscores.
	ErrInvalidAliasFormat = errors.New("invalid alias format")
	// ErrInvalidAliasLength is returned when a custom alias is outside the accepted length range.
	ErrInvalidAliasLength = errors.New("invalid alias length")
	// ErrAliasTaken is returned when a custom alias collides with an existing short code.
	ErrAliasTaken = errors.New("alias is already taken")
	// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short code is exceeded.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	// ErrRateLimiterUnavailable is returned when the quota check itself fails,
	// as opposed to the quota being exhausted.
	ErrRateLimiterUnavailable = errors.New("rate limiter unavailable")
)

// AliasLengthError is returned when a custom alias is outside the accepted
// length range. It carries the configured bounds so callers can report them.
type AliasLengthError struct {
	Min int
	Max int
}

func (e *AliasLengthError) Error() string {
	return fmt.Sprintf("alias length must be between %d and %d characters", e.Min, e.Max)
}

// Is reports ErrInvalidAliasLength as a match so callers can keep using the sentinel.
func (e *AliasLengthError) Is(target error) bool {
	return target == ErrInvalidAliasLength
}

// RateLimitError is returned when a caller exceeds its request quota.
type RateLimitError struct {
	// RetryAfter is the number of seconds until the current window expires.
	RetryAfter int64
	// Limit is the quota applied to the caller.
	Limit int64
	// Reset is the epoch time in seconds when the quota resets.
	Reset int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfter)
}
