package http

import "golang.org/x/time/rate"

// newRateLimiter allows perMinute requests per minute with bursts of up to
// a tenth of that. It returns nil, meaning unlimited, when perMinute <= 0.
func newRateLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	burst := max(perMinute/10, 1)
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
}

func allow(l *rate.Limiter) bool {
	return l == nil || l.Allow()
}
