package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/cepfinder/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter
type RateLimiterConfig struct {
	// RequestsPerSecond is the rate of token refill
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst
	BurstSize int

	// MaxKeys bounds how many clients are tracked at once.
	// The least recently seen client is forgotten first.
	MaxKeys int

	// KeyFunc extracts the rate limit key from the request
	// Default: client IP address
	KeyFunc func(r *http.Request) string
}

// DefaultRateLimiterConfig returns limits suited to interactive lookups.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         20,
		MaxKeys:           10000,
		KeyFunc:           GetClientIP,
	}
}

// RateLimiter is an in-memory token bucket limiter keyed per client.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimiterConfig) (*RateLimiter, error) {
	defaults := DefaultRateLimiterConfig()
	if config.KeyFunc == nil {
		config.KeyFunc = defaults.KeyFunc
	}
	if config.MaxKeys <= 0 {
		config.MaxKeys = defaults.MaxKeys
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}

	limiters, err := lru.New[string, *rate.Limiter](config.MaxKeys)
	if err != nil {
		return nil, err
	}

	return &RateLimiter{config: config, limiters: limiters}, nil
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
		if prev, loaded, _ := rl.limiters.PeekOrAdd(key, limiter); loaded {
			limiter = prev
		}
	}
	return limiter.Allow()
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) retryAfter() string {
	if rl.config.RequestsPerSecond <= 0 {
		return "60"
	}
	wait := time.Duration(float64(time.Second) / rl.config.RequestsPerSecond)
	secs := int(wait.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Middleware returns an HTTP middleware that applies rate limiting
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.config.KeyFunc(r)) {
			w.Header().Set("Retry-After", rl.retryAfter())
			respondWithError(w, r, domain.Errorf(domain.ERATELIMIT, "middleware.ratelimit", "Muitas requisições. Aguarde um instante."))
			return
		}

		next.ServeHTTP(w, r)
	})
}
