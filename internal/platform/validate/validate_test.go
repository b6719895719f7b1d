package validate

import (
	"errors"
	"testing"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

type signup struct {
	FullName string  `json:"full_name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Role     string  `json:"role" validate:"oneof=patient doctor"`
	Fee      float64 `json:"fee" validate:"gte=0"`
}

func TestValidate_OK(t *testing.T) {
	err := New().Validate(&signup{FullName: "Asha", Email: "a@x.com", Password: "pw123456", Role: "patient"})
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidate_Messages(t *testing.T) {
	valid := signup{FullName: "Asha", Email: "a@x.com", Password: "pw123456", Role: "patient"}

	tests := []struct {
		name   string
		mutate func(s *signup)
		want   string
	}{
		{"missing name", func(s *signup) { s.FullName = "" }, "full_name is required"},
		{"bad email", func(s *signup) { s.Email = "nope" }, "email must be a valid email address"},
		{"short password", func(s *signup) { s.Password = "short" }, "password must be at least 8 characters"},
		{"bad role", func(s *signup) { s.Role = "admin" }, "role must be one of: patient, doctor"},
		{"negative fee", func(s *signup) { s.Fee = -1 }, "fee must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := New().Validate(&s)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			_, _, msg, _ := apperr.Classify(err)
			if msg != tt.want {
				t.Errorf("message = %q, want %q", msg, tt.want)
			}
		})
	}
}

func TestVar(t *testing.T) {
	v := New()
	if err := v.Var("dob", "1990-04-02", "datetime=2006-01-02"); err != nil {
		t.Fatalf("expected valid date, got %v", err)
	}
	err := v.Var("dob", "02/04/1990", "datetime=2006-01-02")
	_, _, msg, _ := apperr.Classify(err)
	if msg != "dob must be a date in the form 2006-01-02" {
		t.Errorf("unexpected message %q", msg)
	}
}
