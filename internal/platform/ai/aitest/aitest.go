// Package aitest provides a scripted ai.Client and sample documents for tests
// of the services that call the model.
package aitest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/23f2004399/hms-tool/internal/platform/ai"
	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

// Client is a fake ai.Client. Explanation and Reply are returned unless Err
// is set. Image validation runs as in the real gateway.
type Client struct {
	mu          sync.Mutex
	Explanation string
	Reply       string
	Err         error

	ReadCalls int
	ChatCalls int
	LastChat  string
	History   []ai.Message
}

func (c *Client) Model() string { return "fake-model" }

func (c *Client) ReadPrescription(_ context.Context, img []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ReadCalls++

	if _, err := ai.ValidateImage(img); err != nil {
		return "", apperr.Wrap(apperr.ErrInvalidImage, err)
	}
	if c.Err != nil {
		return "", c.Err
	}
	return c.Explanation, nil
}

func (c *Client) Chat(_ context.Context, message string, history []ai.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ChatCalls++
	c.LastChat = message
	c.History = history

	if strings.TrimSpace(message) == "" {
		return "", apperr.Validation("message is required")
	}
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

// SetErr swaps the scripted error.
func (c *Client) SetErr(err error) {
	c.mu.Lock()
	c.Err = err
	c.mu.Unlock()
}

// PNG returns a small valid PNG image.
func PNG(t testing.TB) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		img.Set(x, x, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Unavailable returns the error the gateway reports when the provider fails.
func Unavailable() error {
	return apperr.Wrap(apperr.ErrAIServiceUnavailable, ai.ErrNotConfigured)
}
