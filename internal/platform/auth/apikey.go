package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicvoice/clinicvoice/internal/platform/httperr"
)

// APIKeyHeader carries the caller's key.
const APIKeyHeader = "X-API-Key"

// KeySet is a fixed allow-list of API keys. Only SHA-256 digests are held so
// every lookup compares equal-length values in constant time.
type KeySet struct {
	hashes [][sha256.Size]byte
}

// NewKeySet builds a KeySet from raw keys, ignoring blanks and surrounding
// whitespace.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		ks.hashes = append(ks.hashes, hashKey(k))
	}
	return ks
}

// Contains reports whether raw is one of the configured keys. Every entry is
// compared so timing does not reveal which key matched.
func (ks *KeySet) Contains(raw string) bool {
	if raw == "" {
		return false
	}
	h := hashKey(raw)
	found := 0
	for i := range ks.hashes {
		found |= subtle.ConstantTimeCompare(h[:], ks.hashes[i][:])
	}
	return found == 1
}

func hashKey(rawKey string) [sha256.Size]byte {
	return sha256.Sum256([]byte(rawKey))
}

// APIKeyConfig configures the API key middleware.
type APIKeyConfig struct {
	Keys    *KeySet
	Skipper func(echo.Context) bool
}

// APIKeyMiddleware rejects requests whose X-API-Key header is missing or not
// in keys with 401. Accepted keys are stored on the context as "api_key" for
// the rate limiter.
func APIKeyMiddleware(keys []string) echo.MiddlewareFunc {
	return APIKeyWithConfig(APIKeyConfig{Keys: NewKeySet(keys), Skipper: AuthSkipper})
}

func APIKeyWithConfig(cfg APIKeyConfig) echo.MiddlewareFunc {
	if cfg.Keys == nil {
		cfg.Keys = &KeySet{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			rawKey := extractAPIKey(c)
			if !cfg.Keys.Contains(rawKey) {
				return httperr.Unauthorized()
			}

			c.Set("api_key", rawKey)
			return next(c)
		}
	}
}

func extractAPIKey(c echo.Context) string {
	return c.Request().Header.Get(APIKeyHeader)
}
