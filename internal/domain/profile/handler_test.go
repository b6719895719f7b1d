package profile

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo := newTestService()
	seedPatient(repo, "p1")
	seedDoctor(repo, "d1")
	return NewHandler(svc), repo, echo.New()
}

func sessionContext(e *echo.Echo, method, target, body, userID string, role auth.Role) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	sess := &auth.Session{ID: "s1", UserID: userID, Role: role, ExpiresAt: time.Now().Add(time.Hour)}
	req = req.WithContext(auth.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Get(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := sessionContext(e, http.MethodGet, "/profile", "", "d1", auth.RoleDoctor)

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["full_name"] != "Dr Rao" || body["role"] != "doctor" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["doctor_details"]; !ok {
		t.Error("expected doctor_details in response")
	}
	if _, ok := body["password_hash"]; ok {
		t.Error("password hash must not be exposed")
	}
}

func TestHandler_Update(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := sessionContext(e, http.MethodPut, "/profile", `{"allergies":"dust"}`, "p1", auth.RolePatient)

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Profile struct {
			Patient struct {
				Allergies string `json:"allergies"`
			} `json:"patient_details"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Profile.Patient.Allergies != "dust" {
		t.Errorf("expected allergies dust, got %q", body.Profile.Patient.Allergies)
	}
}

func TestHandler_UpdateBadBody(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := sessionContext(e, http.MethodPost, "/profile", `["not","an","object"]`, "p1", auth.RolePatient)

	err := h.Update(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_UpdateForbiddenField(t *testing.T) {
	h, repo, e := newTestHandler()
	c, _ := sessionContext(e, http.MethodPost, "/profile", `{"blood_group":"A+"}`, "d1", auth.RoleDoctor)

	err := h.Update(c)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.updates) != 0 {
		t.Error("expected no writes")
	}
}

func TestHandler_UpdateWithoutSession(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(`{"phone":"1"}`))
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Update(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
