package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles calls against the LLM provider. One limiter is shared
// by all chunk workers of a process so the provider's rate limits hold
// regardless of the concurrency setting.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond sustained calls
// with the given burst.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a call is permitted or the context is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call is permitted without waiting
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
