package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func doctorsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, []string{"dr-a", "dr-b"})
}

func TestETag_SetsHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()

	if err := ETag()(doctorsHandler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("expected ETag header")
	}
	if rec.Header().Get("Cache-Control") != "private, no-cache" {
		t.Errorf("unexpected Cache-Control %q", rec.Header().Get("Cache-Control"))
	}
	if rec.Body.Len() == 0 {
		t.Error("expected body to be flushed")
	}
}

func TestETag_NotModified(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	ETag()(doctorsHandler)(e.NewContext(httptest.NewRequest(http.MethodGet, "/doctors", nil), rec))
	etag := rec.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	if err := ETag()(doctorsHandler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("304 must not carry a body")
	}
}

func TestETag_SkipsNonGET(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	ETag()(doctorsHandler)(e.NewContext(httptest.NewRequest(http.MethodPost, "/doctors", nil), rec))

	if rec.Header().Get("ETag") != "" {
		t.Error("POST responses should not get an ETag")
	}
}

func TestETag_PassesErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	err := ETag()(func(c echo.Context) error {
		return echo.ErrNotFound
	})(e.NewContext(httptest.NewRequest(http.MethodGet, "/doctors/x", nil), rec))

	if err != echo.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEtagMatch(t *testing.T) {
	tests := []struct {
		header string
		etag   string
		want   bool
	}{
		{`W/"abc"`, `W/"abc"`, true},
		{`"abc"`, `W/"abc"`, true},
		{`"x", W/"abc"`, `W/"abc"`, true},
		{`*`, `W/"abc"`, true},
		{`"def"`, `W/"abc"`, false},
	}
	for _, tt := range tests {
		if got := etagMatch(tt.header, tt.etag); got != tt.want {
			t.Errorf("etagMatch(%q, %q) = %v, want %v", tt.header, tt.etag, got, tt.want)
		}
	}
}
