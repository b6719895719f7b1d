package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorHandler renders errors returned by handlers. Domain errors use their
// user-safe message; echo.HTTPError keeps its status and message; anything
// else is logged and reported as a bare 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg, known := apperr.Classify(err)
		if !known {
			var (
				he  *echo.HTTPError
				mbe *http.MaxBytesError
			)
			switch {
			case errors.As(err, &mbe):
				status = http.StatusRequestEntityTooLarge
				code = statusCode(status)
				msg = "request body too large"
			case errors.As(err, &he):
				status = he.Code
				code = statusCode(he.Code)
				msg = httpErrorMessage(he)
			}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorResponse{Error: msg, Code: code})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

// WriteError writes an ErrorResponse for status directly, for middleware
// that answers without reaching the error handler.
func WriteError(c echo.Context, status int, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg, Code: statusCode(status)})
}

func httpErrorMessage(he *echo.HTTPError) string {
	if he.Code >= http.StatusInternalServerError {
		return strings.ToLower(http.StatusText(he.Code))
	}
	if s, ok := he.Message.(string); ok && s != "" {
		return s
	}
	return strings.ToLower(http.StatusText(he.Code))
}

// statusCode turns an HTTP status into a snake_case error code, e.g. 429 ->
// "too_many_requests".
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
