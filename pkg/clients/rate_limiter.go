package clients

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow reports whether a request may proceed now
	Allow() bool

	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error

	// SetRate changes the sustained rate in requests per second
	SetRate(rps float64)
}

// tokenBucket adapts rate.Limiter to RateLimiter
type tokenBucket struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a token bucket allowing rps requests per second
// with the given burst. A burst below one is raised to one.
func NewRateLimiter(rps float64, burst int) RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (tb *tokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

func (tb *tokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

func (tb *tokenBucket) SetRate(rps float64) {
	tb.limiter.SetLimit(rate.Limit(rps))
}
