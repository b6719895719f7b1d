package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{ErrForbidden, http.StatusForbidden, "forbidden"},
		{ErrInvalidImage, http.StatusUnprocessableEntity, "invalid_image"},
		{ErrAIServiceUnavailable, http.StatusServiceUnavailable, "ai_unavailable"},
		{ErrNotFound, http.StatusNotFound, "not_found"},
		{ErrValidation, http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		status, code, msg, ok := Classify(fmt.Errorf("register: %w", tt.err))
		if !ok {
			t.Fatalf("Classify(%v) not recognised", tt.err)
		}
		if status != tt.status {
			t.Errorf("Classify(%v) status = %d, want %d", tt.err, status, tt.status)
		}
		if code != tt.code {
			t.Errorf("Classify(%v) code = %q, want %q", tt.err, code, tt.code)
		}
		if msg != tt.err.Error() {
			t.Errorf("Classify(%v) message = %q, want %q", tt.err, msg, tt.err.Error())
		}
	}
}

func TestClassify_DetailShown(t *testing.T) {
	err := fmt.Errorf("profile update: %w", Validation("dob must be YYYY-MM-DD"))
	status, _, msg, ok := Classify(err)
	if !ok || status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (ok=%v)", status, ok)
	}
	if msg != "dob must be YYYY-MM-DD" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestClassify_CauseHidden(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:443: connection refused")
	err := Wrap(ErrAIServiceUnavailable, cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to stay in the chain")
	}
	_, _, msg, _ := Classify(err)
	if msg != ErrAIServiceUnavailable.Error() {
		t.Errorf("cause leaked into message: %q", msg)
	}
}

func TestClassify_Unknown(t *testing.T) {
	status, code, msg, ok := Classify(errors.New("UNIQUE constraint failed: users.email"))
	if ok {
		t.Error("expected unknown error")
	}
	if status != http.StatusInternalServerError || code != "internal_error" {
		t.Errorf("unexpected classification %d %q", status, code)
	}
	if msg != "internal server error" {
		t.Errorf("unexpected message %q", msg)
	}
}
