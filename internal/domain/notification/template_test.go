package notification

import (
	"errors"
	"testing"
)

func TestTemplates_Render(t *testing.T) {
	tpl := NewTemplates()

	got, err := tpl.Render(TypeWelcome, map[string]string{"name": "Asha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Welcome to MediFriend, Asha!" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestTemplates_MissingValueDropsPlaceholder(t *testing.T) {
	tpl := NewTemplates()

	got, err := tpl.Render(TypeUploadFailed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "We could not read right now. Please try again later." {
		t.Errorf("unexpected message %q", got)
	}
}

func TestTemplates_Unknown(t *testing.T) {
	tpl := NewTemplates()
	if _, err := tpl.Render(Type("NOPE"), nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestTemplates_Register(t *testing.T) {
	tpl := NewTemplates()
	tpl.Register(TypeWelcome, "Hi {{name}}, {{name}} again")

	got, _ := tpl.Render(TypeWelcome, map[string]string{"name": "Ravi"})
	if got != "Hi Ravi, Ravi again" {
		t.Errorf("unexpected message %q", got)
	}
}
