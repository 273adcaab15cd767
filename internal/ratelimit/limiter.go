package ratelimit

import (
	"context"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different upstream climate APIs we interact with
type API string

const (
	// APIClimateDataCA represents the ClimateData.ca API
	APIClimateDataCA API = "climatedata_ca"
	// APIGlobe represents the GLOBE observation API
	APIGlobe API = "globe"
	// APINASAPower represents the NASA POWER API
	APINASAPower API = "nasa_power"
	// APINOAACDO represents the NOAA Climate Data Online API
	APINOAACDO API = "noaa_cdo"
)

// Limiter manages rate limits for different upstream APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the singleton rate limiter instance
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = &Limiter{
			limiters: make(map[API]*rate.Limiter),
		}
		instance.initLimiters()
	})
	return instance
}

// initLimiters initializes rate limiters for each API with conservative defaults
func (l *Limiter) initLimiters() {
	// In test mode, use unlimited rate limits to avoid slowing down tests
	if os.Getenv("GO_TESTING") == "1" || isTestMode() {
		l.limiters[APIClimateDataCA] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIGlobe] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APINASAPower] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APINOAACDO] = rate.NewLimiter(rate.Inf, 1)
		return
	}

	// Production rate limits
	// ClimateData.ca: no published limit, be polite at 5 requests per second
	l.limiters[APIClimateDataCA] = rate.NewLimiter(rate.Limit(5), 1)

	// GLOBE API: heavy queries, 2 requests per second (conservative)
	l.limiters[APIGlobe] = rate.NewLimiter(rate.Limit(2), 1)

	// NASA POWER: throttles around 60 requests per minute = 1 per second
	l.limiters[APINASAPower] = rate.NewLimiter(rate.Limit(1), 1)

	// NOAA CDO: documented 5 requests per second per token
	l.limiters[APINOAACDO] = rate.NewLimiter(rate.Limit(5), 1)
}

// isTestMode checks if we're running in test mode
func isTestMode() bool {
	// Check if the test binary is running by looking for test-related arguments
	for _, arg := range os.Args {
		if len(arg) > 6 && arg[:6] == "-test." {
			return true
		}
	}
	return false
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return true
	}

	return limiter.Allow()
}
