package errors

import (
	"errors"
	"testing"
)

func TestModelError(t *testing.T) {
	baseErr := errors.New("base error")
	err := New("gpt-4o-primary", "call", baseErr)

	expected := "model gpt-4o-primary: call: base error"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != baseErr {
		t.Errorf("Expected unwrapped error %v, got %v", baseErr, unwrapped)
	}

	// errors.Is with standard sentinels through the wrapper
	rateErr := New("gpt-4o-primary", "call", ErrRateLimit)
	if !errors.Is(rateErr, ErrRateLimit) {
		t.Error("errors.Is failed with standard error")
	}

	// Pattern matching on model id
	patternErr := &ModelError{Model: "gpt-4o-primary"}
	if !errors.Is(err, patternErr) {
		t.Error("errors.Is failed with model pattern matching")
	}

	wrongModel := &ModelError{Model: "claude-backup"}
	if errors.Is(err, wrongModel) {
		t.Error("errors.Is incorrectly matched different model")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "gpt-4o-primary", "call") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	wrapped := Wrap(ErrTimeout, "gpt-4o-primary", "call")
	if !errors.Is(wrapped, ErrTimeout) {
		t.Error("Wrapped error should match original with errors.Is")
	}

	var modelErr *ModelError
	if !errors.As(wrapped, &modelErr) {
		t.Error("Wrapped error should be a ModelError")
	}

	if modelErr.Model != "gpt-4o-primary" || modelErr.Op != "call" {
		t.Errorf("Expected model 'gpt-4o-primary' and op 'call', got %q and %q",
			modelErr.Model, modelErr.Op)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"timeout", ErrTimeout, KindTimeout},
		{"wrapped timeout", Wrap(ErrTimeout, "m", "call"), KindTimeout},
		{"auth", ErrAuthentication, KindAuth},
		{"rate limit", ErrRateLimit, KindRateLimit},
		{"transport", ErrTransport, KindTransport},
		{"unknown defaults to transport", errors.New("boom"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllFailedError(t *testing.T) {
	err := &AllFailedError{Causes: map[string]error{
		"gpt-4o-primary": ErrTimeout,
	}}

	if !IsAllFailed(err) {
		t.Error("IsAllFailed should report true for AllFailedError")
	}
	if IsAllFailed(ErrTimeout) {
		t.Error("IsAllFailed should report false for other errors")
	}

	empty := &AllFailedError{}
	if empty.Error() != "all models failed" {
		t.Errorf("unexpected message for empty causes: %q", empty.Error())
	}
}
