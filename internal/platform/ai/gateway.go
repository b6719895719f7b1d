package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

// Policy bounds every call to the model.
type Policy struct {
	// Timeout applies to each attempt separately.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first; 0 disables
	// retries.
	MaxRetries int
	// Backoff is the wait before the first retry. It doubles per retry up to
	// MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Timeout:    45 * time.Second,
		MaxRetries: 2,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 5 * time.Second,
	}
}

// maxHistoryTurns caps how much conversation is replayed to the model.
const maxHistoryTurns = 20

const prescriptionPrompt = `You are MediFriend, a careful medical assistant helping a patient understand a prescription.
Read the attached prescription and explain, in simple language:
1. Each medicine, its dosage and when to take it.
2. What each medicine is commonly used for.
3. Any general precautions printed on the prescription.
If parts are illegible, say so instead of guessing. Do not invent medicines.
End with a reminder to confirm anything unclear with the prescribing doctor or a pharmacist.`

const chatPrompt = `You are MediFriend, a friendly health assistant inside a patient portal.
Give general, evidence-based health information in plain language and keep answers short.
You are not a doctor: never diagnose, never prescribe, and advise seeing a doctor for anything serious.
For emergencies, tell the user to contact local emergency services immediately.`

// Gateway implements Client over a Model, applying Policy to every call.
type Gateway struct {
	model  Model
	policy Policy
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewGateway(model Model, policy Policy, logger zerolog.Logger) *Gateway {
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultPolicy().Timeout
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Gateway{
		model:  model,
		policy: policy,
		logger: logger.With().Str("component", "ai").Str("model", model.Name()).Logger(),
		sleep:  sleepContext,
	}
}

func (g *Gateway) Model() string { return g.model.Name() }

func (g *Gateway) ReadPrescription(ctx context.Context, img []byte) (string, error) {
	mimeType, err := ValidateImage(img)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInvalidImage, err)
	}

	req := Request{
		System: prescriptionPrompt,
		Contents: []Content{{
			Role: RoleUser,
			Parts: []Part{
				{Text: "Please explain this prescription."},
				{MIMEType: mimeType, Data: img},
			},
		}},
	}
	return g.generate(ctx, "read_prescription", req)
}

func (g *Gateway) Chat(ctx context.Context, message string, history []Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.Validation("message is required")
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	contents := make([]Content, 0, len(history)+1)
	for _, m := range history {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		contents = append(contents, Content{Role: role, Parts: []Part{{Text: text}}})
	}
	contents = append(contents, Content{Role: RoleUser, Parts: []Part{{Text: message}}})

	return g.generate(ctx, "chat", Request{System: chatPrompt, Contents: contents})
}

// generate runs req with per-attempt timeouts and exponential backoff. Any
// final failure is reported as ErrAIServiceUnavailable; the provider's error
// stays in the logs.
func (g *Gateway) generate(ctx context.Context, op string, req Request) (string, error) {
	var lastErr error
	backoff := g.policy.Backoff

	for attempt := 0; attempt <= g.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := g.sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
			backoff *= 2
			if g.policy.MaxBackoff > 0 && backoff > g.policy.MaxBackoff {
				backoff = g.policy.MaxBackoff
			}
		}

		start := time.Now()
		text, err := g.attempt(ctx, req)
		if err == nil {
			g.logger.Debug().Str("op", op).Int("attempt", attempt+1).
				Dur("latency", time.Since(start)).Msg("model call succeeded")
			return text, nil
		}
		lastErr = err

		evt := g.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Dur("latency", time.Since(start))
		var pe *ProviderError
		if errors.As(err, &pe) {
			evt = evt.Int("provider_status", pe.Status).Str("provider_body", pe.Body)
		}
		evt.Msg("model call failed")

		if !retryable(ctx, err) {
			break
		}
	}

	g.logger.Error().Err(lastErr).Str("op", op).Msg("ai service unavailable")
	return "", apperr.Wrap(apperr.ErrAIServiceUnavailable, lastErr)
}

func (g *Gateway) attempt(ctx context.Context, req Request) (string, error) {
	actx, cancel := context.WithTimeout(ctx, g.policy.Timeout)
	defer cancel()

	text, err := g.model.Generate(actx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// retryable decides whether another attempt is worthwhile. A cancelled or
// expired caller context always stops the loop.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrBlocked) {
		return false
	}
	// Per-attempt deadline, transport failure or empty answer.
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
