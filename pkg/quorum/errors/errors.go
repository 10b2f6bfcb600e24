// Package errors provides domain-specific error types for quorum
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors that can be used with errors.Is()
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTimeout indicates a model call exceeded its deadline
	ErrTimeout = errors.New("call timed out")

	// ErrAuthentication indicates authentication failure at the backend
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimit indicates backend rate limiting
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrTransport indicates a network or protocol failure
	ErrTransport = errors.New("transport failure")

	// ErrModelUnknown indicates a model id not present in the registry
	ErrModelUnknown = errors.New("unknown model")

	// ErrEmptyResponse indicates the backend returned no usable content
	ErrEmptyResponse = errors.New("empty response")
)

// Kind classifies a failed model call for diagnostics.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindAuth      Kind = "auth_failure"
	KindRateLimit Kind = "rate_limited"
	KindTransport Kind = "transport_failure"
	KindNone      Kind = ""
)

// Classify maps an error to its Kind. Unrecognized errors count as
// transport failures so every failed candidate carries a kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrAuthentication):
		return KindAuth
	case errors.Is(err, ErrRateLimit):
		return KindRateLimit
	default:
		return KindTransport
	}
}

// ModelError wraps model-call errors with context
type ModelError struct {
	// Model is the registry id of the model (e.g., "gpt-4o-primary")
	Model string

	// Operation being performed (e.g., "call", "load_record")
	Op string

	// Underlying error
	Err error
}

// Error implements the error interface
func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ModelError) Unwrap() error {
	return e.Err
}

// New creates a new ModelError
func New(model, op string, err error) error {
	return &ModelError{
		Model: model,
		Op:    op,
		Err:   err,
	}
}

// Wrap adds model context to an existing error
func Wrap(err error, model, op string) error {
	if err == nil {
		return nil
	}
	return &ModelError{
		Model: model,
		Op:    op,
		Err:   err,
	}
}

// Is enables custom error matching
func (e *ModelError) Is(target error) bool {
	if errors.Is(e.Err, target) {
		return true
	}

	t, ok := target.(*ModelError)
	if !ok {
		return false
	}

	// Match on specific fields if provided
	if t.Model != "" && t.Model != e.Model {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}

	if t.Model != "" || t.Op != "" {
		return true
	}

	return errors.Is(e.Err, t.Err)
}

// AllFailedError reports that every model in a batch failed. It is the
// only fatal error an orchestration request surfaces; per-model failures
// are absorbed into candidate diagnostics.
type AllFailedError struct {
	// Causes maps model id to the failure for that model
	Causes map[string]error
}

// Error implements the error interface
func (e *AllFailedError) Error() string {
	if len(e.Causes) == 0 {
		return "all models failed"
	}

	parts := make([]string, 0, len(e.Causes))
	for model, err := range e.Causes {
		parts = append(parts, fmt.Sprintf("%s: %v", model, err))
	}
	return fmt.Sprintf("all models failed: %s", strings.Join(parts, "; "))
}

// IsAllFailed reports whether err is an AllFailedError
func IsAllFailed(err error) bool {
	var afe *AllFailedError
	return errors.As(err, &afe)
}
