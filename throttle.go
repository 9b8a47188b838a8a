package loginflow

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledMessage is the failure reported when Throttle rejects an attempt.
const ThrottledMessage = "Too many login attempts, try again later"

// Throttle wraps service with a token bucket of the given rate and burst.
// Attempts beyond the budget fail with ThrottledMessage without reaching
// service. A non-positive limit or burst returns service unchanged.
func Throttle(service Service, limit rate.Limit, burst int) Service {
	if limit <= 0 || burst <= 0 {
		return service
	}
	limiter := rate.NewLimiter(limit, burst)
	return ServiceFunc(func(ctx context.Context, username, password string) (Result, error) {
		if !limiter.Allow() {
			return Failure(ThrottledMessage), nil
		}
		return service.Login(ctx, username, password)
	})
}
