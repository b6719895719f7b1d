// Package apperr defines the error kinds shared by every service. Each kind
// carries a user-safe message; causes from the database or the AI provider are
// wrapped underneath and never rendered to clients.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrDuplicateEmail       = errors.New("an account with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUnauthorized         = errors.New("authentication required")
	ErrForbidden            = errors.New("you are not allowed to perform this action")
	ErrInvalidImage         = errors.New("the uploaded file is not a readable image")
	ErrAIServiceUnavailable = errors.New("the AI service is temporarily unavailable, please try again later")
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("invalid input")
)

var kinds = []struct {
	err    error
	code   string
	status int
}{
	{ErrDuplicateEmail, "duplicate_email", http.StatusConflict},
	{ErrInvalidCredentials, "invalid_credentials", http.StatusUnauthorized},
	{ErrUnauthorized, "unauthorized", http.StatusUnauthorized},
	{ErrForbidden, "forbidden", http.StatusForbidden},
	{ErrInvalidImage, "invalid_image", http.StatusUnprocessableEntity},
	{ErrAIServiceUnavailable, "ai_unavailable", http.StatusServiceUnavailable},
	{ErrNotFound, "not_found", http.StatusNotFound},
	{ErrValidation, "validation_error", http.StatusBadRequest},
}

// Error attaches a user-safe detail to one of the sentinel kinds. Cause is an
// optional underlying error kept for logging.
type Error struct {
	Kind   error
	Detail string
	Cause  error
}

// New returns an error of the given kind with a detail shown to the user.
func New(kind error, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap returns an error of the given kind that keeps cause for logs only.
func Wrap(kind error, cause error) error {
	return &Error{Kind: kind, Cause: cause}
}

// Validation is shorthand for New(ErrValidation, detail).
func Validation(detail string) error {
	return New(ErrValidation, detail)
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Classify returns the HTTP status, the machine-readable code and the message
// that may be shown to the user. ok is false for errors outside the taxonomy.
func Classify(err error) (status int, code, message string, ok bool) {
	for _, k := range kinds {
		if !errors.Is(err, k.err) {
			continue
		}
		message = k.err.Error()
		var ae *Error
		if errors.As(err, &ae) && ae.Detail != "" && errors.Is(ae.Kind, k.err) {
			message = ae.Detail
		}
		return k.status, k.code, message, true
	}
	return http.StatusInternalServerError, "internal_error", "internal server error", false
}
