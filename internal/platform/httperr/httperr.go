package httperr

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicvoice/clinicvoice/internal/platform/validation"
)

const (
	MsgValidationFailed = "Validation failed"
	MsgUnauthorized     = "Invalid or missing API key"
	MsgRateLimited      = "Rate limit exceeded"
	MsgRouteNotFound    = "Route not found"
	MsgInternal         = "Internal server error"
)

// Error is an HTTP-visible failure. Cause is logged, never rendered.
type Error struct {
	Code       int
	Message    string
	Details    interface{}
	RetryAfter int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Body is the failure envelope.
type Body struct {
	Error      string      `json:"error"`
	Details    interface{} `json:"details,omitempty"`
	RetryAfter int         `json:"retryAfter,omitempty"`
}

func BadRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

func Validation(issues validation.Errors) *Error {
	return &Error{Code: http.StatusBadRequest, Message: MsgValidationFailed, Details: issues}
}

func NotFound(msg string) *Error {
	return &Error{Code: http.StatusNotFound, Message: msg}
}

func Unauthorized() *Error {
	return &Error{Code: http.StatusUnauthorized, Message: MsgUnauthorized}
}

func TooManyRequests(retryAfter int) *Error {
	return &Error{Code: http.StatusTooManyRequests, Message: MsgRateLimited, RetryAfter: retryAfter}
}

func Internal(cause error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: MsgInternal, Cause: cause}
}

// Resolve maps any error returned by a handler or middleware onto an Error.
func Resolve(err error) *Error {
	var he *Error
	if errors.As(err, &he) {
		return he
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return Validation(verrs)
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		switch ee.Code {
		case http.StatusNotFound:
			return NotFound(MsgRouteNotFound)
		case http.StatusInternalServerError:
			return Internal(err)
		}
		msg := http.StatusText(ee.Code)
		if s, ok := ee.Message.(string); ok && s != "" {
			msg = s
		}
		return &Error{Code: ee.Code, Message: msg, Cause: ee.Internal}
	}

	return Internal(err)
}

// Handler returns an echo.HTTPErrorHandler rendering the {error, details?}
// envelope. 5xx responses are logged with their full cause.
func Handler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := Resolve(err)
		if he.Code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}
		if he.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(he.RetryAfter))
		}

		body := Body{Error: he.Message, Details: he.Details, RetryAfter: he.RetryAfter}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
