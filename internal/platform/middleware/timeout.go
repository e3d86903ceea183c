package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicvoice/clinicvoice/internal/platform/httperr"
)

const MsgTimeout = "Request timed out"

// RequestTimeout sets a deadline on each request context. Store calls made
// with that context abort once it passes and the request fails with 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded) {
				return &httperr.Error{Code: http.StatusGatewayTimeout, Message: MsgTimeout, Cause: err}
			}
			return err
		}
	}
}
