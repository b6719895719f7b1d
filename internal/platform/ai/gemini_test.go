package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *GeminiModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiModel(GeminiConfig{BaseURL: srv.URL + "/", Model: "gemini-test", APIKey: "secret-key"})
}

func TestGeminiModel_Generate(t *testing.T) {
	img := samplePNG(t)
	var got geminiRequest

	m := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret-key" {
			t.Errorf("api key header missing")
		}
		if r.URL.Query().Get("key") != "" {
			t.Errorf("api key must not travel in the query string")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Take one "},{"text":"tablet daily."}]},"finishReason":"STOP"}]}`)
	})

	text, err := m.Generate(context.Background(), Request{
		System: "be helpful",
		Contents: []Content{
			{Role: RoleUser, Parts: []Part{{Text: "hi"}}},
			{Role: RoleAssistant, Parts: []Part{{Text: "hello"}}},
			{Role: RoleUser, Parts: []Part{{Text: "read this"}, {MIMEType: "image/png", Data: img}}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Take one tablet daily." {
		t.Errorf("unexpected text %q", text)
	}

	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "be helpful" {
		t.Errorf("system instruction not sent: %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(got.Contents))
	}
	if got.Contents[1].Role != "model" {
		t.Errorf("assistant turns must be sent as model, got %q", got.Contents[1].Role)
	}
	inline := got.Contents[2].Parts[1].InlineData
	if inline == nil || inline.MIMEType != "image/png" {
		t.Fatalf("inline data missing: %+v", got.Contents[2].Parts)
	}
	if inline.Data != base64.StdEncoding.EncodeToString(img) {
		t.Error("inline data is not the base64 image")
	}
	if got.GenerationConfig.MaxOutputTokens == 0 {
		t.Error("generation config not sent")
	}
}

func TestGeminiModel_ProviderError(t *testing.T) {
	m := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, strings.Repeat("x", 2000))
	})

	_, err := m.Generate(context.Background(), Request{Contents: []Content{{Role: RoleUser, Parts: []Part{{Text: "hi"}}}}})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusServiceUnavailable || !pe.Retryable() {
		t.Errorf("unexpected provider error %+v", pe)
	}
	if len(pe.Body) != maxLoggedBody {
		t.Errorf("body should be truncated to %d, got %d", maxLoggedBody, len(pe.Body))
	}
}

func TestGeminiModel_Blocked(t *testing.T) {
	m := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	_, err := m.Generate(context.Background(), Request{Contents: []Content{{Role: RoleUser, Parts: []Part{{Text: "hi"}}}}})
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestGeminiModel_NoCandidates(t *testing.T) {
	m := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := m.Generate(context.Background(), Request{Contents: []Content{{Role: RoleUser, Parts: []Part{{Text: "hi"}}}}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestProviderError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusGatewayTimeout, true},
	}
	for _, tt := range tests {
		if got := (&ProviderError{Status: tt.status}).Retryable(); got != tt.want {
			t.Errorf("status %d: got %v, want %v", tt.status, got, tt.want)
		}
	}
}
