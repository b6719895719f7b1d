package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

type contextKey string

const sessionKey contextKey = "session"

// Echo context keys set alongside the request context so the request logger
// can report the caller.
const (
	EchoUserIDKey = "user_id"
	EchoRoleKey   = "user_role"
)

// CookieConfig controls how the session token travels as a cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionMiddleware resolves the session token from the cookie or a Bearer
// Authorization header. Requests with no token, or a token that no longer
// names a live session, continue anonymously; RequireSession rejects them
// where a login is needed.
func SessionMiddleware(m *SessionManager, cookie CookieConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, fromCookie := tokenFromRequest(c.Request(), cookie.Name)
			if token == "" {
				return next(c)
			}

			sess, err := m.Resolve(c.Request().Context(), token)
			if err != nil {
				if fromCookie {
					ClearSessionCookie(c, cookie)
				}
				return next(c)
			}

			c.Set(EchoUserIDKey, sess.UserID)
			c.Set(EchoRoleKey, sess.Role.String())
			c.SetRequest(c.Request().WithContext(ContextWithSession(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFromContext(c.Request().Context()) == nil {
				return apperr.ErrUnauthorized
			}
			return next(c)
		}
	}
}

func tokenFromRequest(r *http.Request, cookieName string) (token string, fromCookie bool) {
	if ck, err := r.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1]), false
	}
	return "", false
}

// SetSessionCookie writes the token as an HttpOnly cookie that expires with
// the session.
func SetSessionCookie(c echo.Context, cfg CookieConfig, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 0
	}
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the client to drop the session cookie.
func ClearSessionCookie(c echo.Context, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the raw session token carried by the request.
func TokenFromRequest(c echo.Context, cookieName string) string {
	token, _ := tokenFromRequest(c.Request(), cookieName)
	return token
}

// ContextWithSession stores sess in ctx.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}

func UserIDFromContext(ctx context.Context) string {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.UserID
	}
	return ""
}

func RoleFromContext(ctx context.Context) Role {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Role
	}
	return ""
}
