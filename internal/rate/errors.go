package rate

import "errors"

var (
	// ErrRateLimited is returned once an identifier has used its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps every Redis failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
