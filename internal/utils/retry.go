package utils

import (
	"errors"
	"time"
)

// Retry retries the given function up to maxAttempts with exponential backoff.
// If the function returns nil, it stops retrying.
func Retry[T any](maxAttempts int, initialDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt < maxAttempts {
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		} else {
			return zero, err
		}
	}
	return zero, errors.New("max attempts reached")
}
