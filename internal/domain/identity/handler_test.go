package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

var testCookie = auth.CookieConfig{Name: "medifriend_session"}

func newTestHandler(t *testing.T) (*Handler, *fixture, *echo.Echo) {
	f := newFixture(t)
	return NewHandler(f.svc, testCookie), f, echo.New()
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Register(t *testing.T) {
	h, _, e := newTestHandler(t)
	c, rec := jsonContext(e, http.MethodPost, "/register",
		`{"full_name":"Asha","email":"a@x.com","password":"pw123456","role":"patient"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response must not carry the password hash: %s", rec.Body.String())
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("registration must not set a session cookie")
	}
}

func TestHandler_RegisterBadBody(t *testing.T) {
	h, _, e := newTestHandler(t)
	c, _ := jsonContext(e, http.MethodPost, "/register", `{"email":`)

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_LoginAndLogout(t *testing.T) {
	h, f, e := newTestHandler(t)
	c, _ := jsonContext(e, http.MethodPost, "/register",
		`{"full_name":"Asha","email":"a@x.com","password":"pw123456","role":"patient"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}

	c, rec := jsonContext(e, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw123456"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.User == nil || resp.User.Email != "a@x.com" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != testCookie.Name || !cookies[0].HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.store.Count() != 0 {
		t.Errorf("session should be removed, %d left", f.store.Count())
	}
	if cleared := rec.Result().Cookies(); len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("expected the cookie to be cleared, got %+v", cleared)
	}
}

func TestHandler_LoginWrongPassword(t *testing.T) {
	h, f, e := newTestHandler(t)
	c, _ := jsonContext(e, http.MethodPost, "/register",
		`{"full_name":"Asha","email":"a@x.com","password":"pw123456","role":"patient"}`)
	h.Register(c)

	c, rec := jsonContext(e, http.MethodPost, "/login", `{"email":"a@x.com","password":"nope-nope"}`)
	if err := h.Login(c); err == nil {
		t.Fatal("expected an error")
	}
	if len(rec.Result().Cookies()) != 0 || f.store.Count() != 0 {
		t.Error("failed login must not issue a session")
	}
}

func TestHandler_ChangePasswordRequiresSession(t *testing.T) {
	h, _, e := newTestHandler(t)
	c, _ := jsonContext(e, http.MethodPost, "/password", `{"current_password":"a","new_password":"bbbbbbbb"}`)

	err := h.ChangePassword(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_Doctors(t *testing.T) {
	h, f, e := newTestHandler(t)
	doc, err := f.svc.Register(context.Background(), doctorRequest("doc@x.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/doctors?specialization=cardiology", nil)
	rec := httptest.NewRecorder()
	if err := h.ListDoctors(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), doc.ID) {
		t.Errorf("expected the doctor in the listing, got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/doctors/x", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if he, ok := h.GetDoctor(c).(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed id")
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/doctors/"+doc.ID, nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID)
	if err := h.GetDoctor(c); err != nil {
		t.Fatalf("get doctor: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
