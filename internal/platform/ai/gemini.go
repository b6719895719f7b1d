package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-1.5-flash"

	maxResponseBytes = 4 << 20
	maxLoggedBody    = 512
)

// GeminiConfig configures GeminiModel.
type GeminiConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	// HTTPClient defaults to a client without its own timeout; deadlines come
	// from the caller's context.
	HTTPClient *http.Client
}

// GeminiModel calls the Gemini generateContent REST endpoint.
type GeminiModel struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func NewGeminiModel(cfg GeminiConfig) *GeminiModel {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &GeminiModel{
		endpoint: base + "/v1beta/models/" + url.PathEscape(model) + ":generateContent",
		model:    model,
		apiKey:   cfg.APIKey,
		client:   client,
	}
}

func (m *GeminiModel) Name() string { return m.model }

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func toGeminiRequest(req Request) geminiRequest {
	out := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Contents)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.4,
			MaxOutputTokens: 2048,
		},
	}
	if req.System != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, c := range req.Contents {
		role := "user"
		if c.Role == RoleAssistant {
			role = "model"
		}
		gc := geminiContent{Role: role}
		for _, p := range c.Parts {
			if len(p.Data) > 0 {
				gc.Parts = append(gc.Parts, geminiPart{InlineData: &geminiInlineData{
					MIMEType: p.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(p.Data),
				}})
				continue
			}
			gc.Parts = append(gc.Parts, geminiPart{Text: p.Text})
		}
		out.Contents = append(out.Contents, gc)
	}
	return out
}

func (m *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(toGeminiRequest(req))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", m.model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(raw)
		if len(snippet) > maxLoggedBody {
			snippet = snippet[:maxLoggedBody]
		}
		return "", &ProviderError{Status: resp.StatusCode, Body: snippet}
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, out.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
