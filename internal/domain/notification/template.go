package notification

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownType is returned when no template is registered for a type.
var ErrUnknownType = errors.New("unknown notification type")

// Templates renders notification messages from {{key}} placeholders.
type Templates struct {
	mu        sync.RWMutex
	templates map[Type]string
}

func NewTemplates() *Templates {
	t := &Templates{templates: make(map[Type]string)}
	t.Register(TypeWelcome, "Welcome to MediFriend, {{name}}!")
	t.Register(TypeUploadExplained, "Your prescription {{file}} has been read. Open it to see the explanation.")
	t.Register(TypeUploadFailed, "We could not read {{file}} right now. Please try again later.")
	t.Register(TypeAppointmentAccepted, "Dr. {{doctor}} accepted your appointment on {{date}}.")
	t.Register(TypeAppointmentRejected, "Dr. {{doctor}} could not take your appointment on {{date}}.")
	t.Register(TypePrescriptionWritten, "Dr. {{doctor}} wrote you a new prescription.")
	return t
}

// Register adds or replaces the template for typ.
func (t *Templates) Register(typ Type, text string) {
	t.mu.Lock()
	t.templates[typ] = text
	t.mu.Unlock()
}

// Render fills the template for typ. Placeholders without a value are
// removed.
func (t *Templates) Render(typ Type, data map[string]string) (string, error) {
	t.mu.RLock()
	text, ok := t.templates[typ]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}

	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	out := strings.NewReplacer(pairs...).Replace(text)

	// Drop leftovers so a missing value never shows a raw placeholder.
	for {
		start := strings.Index(out, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(out[start:], "}}")
		if end < 0 {
			break
		}
		out = out[:start] + out[start+end+2:]
	}
	return strings.Join(strings.Fields(out), " "), nil
}
