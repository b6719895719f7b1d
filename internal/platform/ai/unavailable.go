package ai

import (
	"context"
	"strings"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

// Unavailable is the Client used when no API key is configured. Input is
// still validated so callers see the same errors as with a live model.
type Unavailable struct{}

func (Unavailable) Model() string { return "" }

func (Unavailable) ReadPrescription(_ context.Context, img []byte) (string, error) {
	if _, err := ValidateImage(img); err != nil {
		return "", apperr.Wrap(apperr.ErrInvalidImage, err)
	}
	return "", apperr.Wrap(apperr.ErrAIServiceUnavailable, ErrNotConfigured)
}

func (Unavailable) Chat(_ context.Context, message string, _ []Message) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperr.Validation("message is required")
	}
	return "", apperr.Wrap(apperr.ErrAIServiceUnavailable, ErrNotConfigured)
}
