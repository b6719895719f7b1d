// Package ai is the gateway to the hosted vision/language model. Domain
// services depend on Client; the Gemini REST binding and the retry policy
// live behind it.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Client is what the upload and chat services call.
type Client interface {
	// ReadPrescription explains a prescription image in plain language.
	ReadPrescription(ctx context.Context, image []byte) (string, error)
	// Chat answers message in the context of the earlier turns in history.
	Chat(ctx context.Context, message string, history []Message) (string, error)
	// Model names the model behind the client, for audit.
	Model() string
}

// Speaker of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one earlier turn of a chat conversation.
type Message struct {
	Role string `json:"role" validate:"oneof=user assistant"`
	Text string `json:"text" validate:"required,max=4000"`
}

// Part is one piece of a model request: text or inline binary data.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// Content is a single turn sent to the model.
type Content struct {
	Role  string // RoleUser or RoleAssistant
	Parts []Part
}

// Request is a provider-neutral generation request.
type Request struct {
	System   string
	Contents []Content
}

// Model is a provider binding.
type Model interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

var (
	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("model returned no text")
	// ErrBlocked is returned when the provider refuses the prompt. Retrying
	// the same prompt cannot help.
	ErrBlocked = errors.New("prompt blocked by provider")
	// ErrNotConfigured is the cause reported by the Unavailable client.
	ErrNotConfigured = errors.New("ai provider not configured")
)

// ProviderError is a non-2xx answer from the provider. Body is kept for logs
// only.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d %s", e.Status, http.StatusText(e.Status))
}

// Retryable reports whether the same request may succeed later.
func (e *ProviderError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// NewClient returns a Gemini-backed gateway, or Unavailable when no API key
// is configured.
func NewClient(cfg GeminiConfig, policy Policy, logger zerolog.Logger) Client {
	if cfg.APIKey == "" {
		logger.Warn().Msg("AI_API_KEY not set; prescription reading and chat are disabled")
		return Unavailable{}
	}
	return NewGateway(NewGeminiModel(cfg), policy, logger)
}
