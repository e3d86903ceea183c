package db

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 5 * time.Second

// LivenessHandler reports that the process is up, with seconds since started.
func LivenessHandler(started time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"uptime":    time.Since(started).Seconds(),
		})
	}
}

// ReadinessHandler pings the store and answers 503 when it is unreachable.
func ReadinessHandler(p Pinger, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		defer cancel()

		now := time.Now().UTC().Format(time.RFC3339Nano)
		if err := p.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("readiness check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":    "not ready",
				"timestamp": now,
				"database":  "disconnected",
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ready",
			"timestamp": now,
			"database":  "connected",
		})
	}
}
