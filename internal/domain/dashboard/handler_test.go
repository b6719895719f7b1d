package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

func TestHandler_Get(t *testing.T) {
	svc, _ := newTestService(uploads(1))
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	sess := &auth.Session{ID: "s1", UserID: "d1", Role: auth.RoleDoctor, ExpiresAt: time.Now().Add(time.Hour)}
	req = req.WithContext(auth.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	if err := h.Get(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["role"] != "doctor" || body["full_name"] != "Dr Rao" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["stats"]; !ok {
		t.Error("expected stats")
	}
}

func TestHandler_GetWithoutSession(t *testing.T) {
	svc, _ := newTestService(uploads(0))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	err := NewHandler(svc).Get(echo.New().NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
