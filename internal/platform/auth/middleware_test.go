package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

var testCookie = CookieConfig{Name: "medifriend_session"}

func serveWithSession(m *SessionManager, req *http.Request) (*httptest.ResponseRecorder, *Session) {
	e := echo.New()
	var seen *Session
	e.Use(SessionMiddleware(m, testCookie))
	e.GET("/", func(c echo.Context) error {
		seen = SessionFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestSessionMiddleware_Cookie(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, token, _ := m.Issue(context.Background(), "user-1", RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: token})
	_, sess := serveWithSession(m, req)

	if sess == nil || sess.UserID != "user-1" {
		t.Fatalf("expected session for user-1, got %+v", sess)
	}
}

func TestSessionMiddleware_Bearer(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, token, _ := m.Issue(context.Background(), "user-2", RoleDoctor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	_, sess := serveWithSession(m, req)

	if sess == nil || sess.Role != RoleDoctor {
		t.Fatalf("expected doctor session, got %+v", sess)
	}
}

func TestSessionMiddleware_Anonymous(t *testing.T) {
	m, _, _ := newTestManager(t)

	rec, sess := serveWithSession(m, httptest.NewRequest(http.MethodGet, "/", nil))
	if sess != nil {
		t.Errorf("expected no session, got %+v", sess)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("anonymous requests should pass through, got %d", rec.Code)
	}
}

func TestSessionMiddleware_StaleCookieCleared(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	sess, token, _ := m.Issue(ctx, "user-1", RolePatient)
	m.Revoke(ctx, sess.ID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: token})
	rec, seen := serveWithSession(m, req)

	if seen != nil {
		t.Fatalf("revoked session must not resolve")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != testCookie.Name || cookies[0].MaxAge >= 0 {
		t.Errorf("expected a clearing cookie, got %+v", cookies)
	}
}

func TestRequireSession(t *testing.T) {
	handler := RequireSession()(okHandler)

	if err := handler(newRoleContext(nil)); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := handler(newRoleContext(&Session{UserID: "u"})); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestSetSessionCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)

	SetSessionCookie(c, CookieConfig{Name: "sid", Secure: true}, "tok", time.Now().Add(time.Hour))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Value != "tok" || !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode || ck.Path != "/" {
		t.Errorf("unexpected cookie %+v", ck)
	}
}

func TestContextHelpers(t *testing.T) {
	if UserIDFromContext(context.Background()) != "" {
		t.Error("expected empty user id")
	}
	if RoleFromContext(context.Background()) != "" {
		t.Error("expected empty role")
	}

	ctx := ContextWithSession(context.Background(), &Session{UserID: "user-123", Role: RoleDoctor})
	if uid := UserIDFromContext(ctx); uid != "user-123" {
		t.Errorf("expected user-123, got %s", uid)
	}
	if role := RoleFromContext(ctx); role != RoleDoctor {
		t.Errorf("expected DOCTOR, got %s", role)
	}
}
