package apperr

import (
	"errors"
	"strings"
)

// Sentinel errors shared by every service. HTTP status mapping lives in
// internal/httpapi; services only pick the category.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrProvider        = errors.New("provider error")
)

// FieldError describes one violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a single-field validation error.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Message is a client-safe error with a fixed category.
type Message struct {
	Kind error
	Text string
}

func (e *Message) Error() string { return e.Text }

func (e *Message) Unwrap() error { return e.Kind }

// New returns an error that matches kind via errors.Is and reports text.
func New(kind error, text string) error {
	return &Message{Kind: kind, Text: text}
}

// Details extracts field errors when err is a validation error.
func Details(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
