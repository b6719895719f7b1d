package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

func TestNewClient_WithoutKeyIsUnavailable(t *testing.T) {
	c := NewClient(GeminiConfig{}, DefaultPolicy(), zerolog.Nop())
	if _, ok := c.(Unavailable); !ok {
		t.Fatalf("expected Unavailable client, got %T", c)
	}

	_, err := c.ReadPrescription(context.Background(), samplePNG(t))
	if !errors.Is(err, apperr.ErrAIServiceUnavailable) {
		t.Errorf("expected ErrAIServiceUnavailable, got %v", err)
	}
	_, err = c.Chat(context.Background(), "hello", nil)
	if !errors.Is(err, apperr.ErrAIServiceUnavailable) {
		t.Errorf("expected ErrAIServiceUnavailable, got %v", err)
	}
}

func TestNewClient_WithKeyIsGateway(t *testing.T) {
	c := NewClient(GeminiConfig{APIKey: "k"}, DefaultPolicy(), zerolog.Nop())
	g, ok := c.(*Gateway)
	if !ok {
		t.Fatalf("expected *Gateway, got %T", c)
	}
	if g.Model() != DefaultGeminiModel {
		t.Errorf("expected default model, got %q", g.Model())
	}
}

func TestUnavailable_ValidatesInputFirst(t *testing.T) {
	var c Unavailable

	if _, err := c.ReadPrescription(context.Background(), []byte("not an image")); !errors.Is(err, apperr.ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
	if _, err := c.Chat(context.Background(), "", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
