package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrPanic wraps a value recovered from a handler panic. ErrorHandler
// reports it as a plain 500.
var ErrPanic = errors.New("handler panicked")

// Recovery turns handler panics into ErrPanic and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				rid, _ := c.Get("request_id").(string)
				uid, _ := c.Get("user_id").(string)
				logger.Error().
					Str("request_id", rid).
					Str("user_id", uid).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}()
			return next(c)
		}
	}
}
