package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIYahoo represents the Yahoo Finance endpoints
	APIYahoo API = "yahoo"
	// APIAlphaVantage represents the Alpha Vantage query endpoint
	APIAlphaVantage API = "alphavantage"
)

const (
	// DefaultCalls and DefaultPeriod follow Yahoo's published guidance of
	// 2000 requests per hour.
	DefaultCalls  = 2000
	DefaultPeriod = time.Hour
)

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the process-wide rate limiter instance. It starts with
// the default Yahoo limit; Configure replaces it.
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = New()
		instance.Configure(APIYahoo, DefaultCalls, DefaultPeriod)
	})
	return instance
}

// New returns a limiter with no configured APIs. Unconfigured APIs are not limited.
func New() *Limiter {
	return &Limiter{
		limiters: make(map[API]*rate.Limiter),
	}
}

// Configure sets the limit for api to at most calls per period.
//
// Calls are spaced evenly (one token, refilled every Interval), so no
// window of length period ever sees more than calls requests. A non-positive
// calls or period removes the limit.
func (l *Limiter) Configure(api API, calls int, period time.Duration) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if calls > 0 && period > 0 {
		limiter = rate.NewLimiter(rate.Every(Interval(calls, period)), 1)
	}

	l.mu.Lock()
	l.limiters[api] = limiter
	l.mu.Unlock()
}

// Interval is the spacing between calls for a limit of calls per period,
// rounded up to the next nanosecond so calls intervals always span at least
// period. It is never below one nanosecond.
func Interval(calls int, period time.Duration) time.Duration {
	n := time.Duration(calls)
	d := period / n
	if period%n != 0 {
		d++
	}
	return max(d, time.Nanosecond)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return nil
	}

	return limiter.Wait(ctx)
}
