package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicvoice/clinicvoice/internal/platform/httperr"
)

// RateLimitConfig holds fixed-window rate limiting configuration.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// DefaultRateLimitConfig allows 100 requests per key every 15 minutes.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:    100,
		Window: 15 * time.Minute,
	}
}

// window is the counter for one key. It starts at the key's first request
// and is replaced once it has expired.
type window struct {
	count   int
	resetAt time.Time
}

// decision is the outcome of counting one request.
type decision struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

// rateLimiterStore holds the per-key windows.
type rateLimiterStore struct {
	windows map[string]*window
	mu      sync.Mutex
	config  RateLimitConfig
	now     func() time.Time
}

// newRateLimiterStore fills unset limits from DefaultRateLimitConfig.
func newRateLimiterStore(cfg RateLimitConfig, now func() time.Time) *rateLimiterStore {
	def := DefaultRateLimitConfig()
	if cfg.Max <= 0 {
		cfg.Max = def.Max
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if now == nil {
		now = time.Now
	}
	return &rateLimiterStore{
		windows: make(map[string]*window),
		config:  cfg,
		now:     now,
	}
}

// hit counts a request against key. The read-modify-write happens under one
// lock so concurrent requests cannot both take the last slot.
func (s *rateLimiterStore) hit(key string) decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(s.config.Window)}
		s.windows[key] = w
	}
	w.count++

	remaining := s.config.Max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return decision{
		allowed:   w.count <= s.config.Max,
		remaining: remaining,
		resetAt:   w.resetAt,
	}
}

// RateLimit returns a fixed-window rate limiting middleware keyed by the
// authenticated API key, falling back to the client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(newRateLimiterStore(cfg, nil))
}

func rateLimit(store *rateLimiterStore) echo.MiddlewareFunc {
	limit := strconv.Itoa(store.config.Max)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get("api_key").(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			d := store.hit(key)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.resetAt.Unix(), 10))

			if !d.allowed {
				return httperr.TooManyRequests(retryAfterSeconds(d.resetAt.Sub(store.now())))
			}
			return next(c)
		}
	}
}

// retryAfterSeconds rounds up so clients never retry before the reset.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
