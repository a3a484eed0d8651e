package errors

import (
	"errors"
	"testing"
)

func TestMultiError_Error(t *testing.T) {
	tests := []struct {
		name     string
		errors   []error
		expected string
	}{
		{
			name:     "No errors",
			errors:   []error{},
			expected: "no errors",
		},
		{
			name:     "Single error",
			errors:   []error{errors.New("first error")},
			expected: "first error",
		},
		{
			name:     "Multiple errors",
			errors:   []error{errors.New("first error"), errors.New("second error")},
			expected: "first error (and 1 more errors)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			multiErr := MultiError{Errors: tt.errors}
			result := multiErr.Error()
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestMultiError_AddAndHasErrors(t *testing.T) {
	multiErr := &MultiError{}

	multiErr.Add(nil)
	if multiErr.HasErrors() {
		t.Error("adding nil should not register an error")
	}

	err1 := errors.New("first error")
	multiErr.Add(err1)
	if !multiErr.HasErrors() || len(multiErr.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(multiErr.Errors))
	}
	if multiErr.Errors[0] != err1 {
		t.Error("first error not in correct position")
	}
}

func TestPipelineError(t *testing.T) {
	cause := errors.New("fetch failed")
	pipelineErr := PipelineError{
		Location: "東京",
		Stage:    "fetch_forecast",
		Err:      cause,
	}

	expected := "pipeline error for 東京 at stage fetch_forecast: fetch failed"
	if pipelineErr.Error() != expected {
		t.Errorf("expected %q, got %q", expected, pipelineErr.Error())
	}
	if !errors.Is(pipelineErr.Unwrap(), cause) {
		t.Error("Unwrap should return the original cause")
	}
}

func TestAppError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := New(WeatherFetch, cause).WithDetail("location", "大阪")

	if err.Type != WeatherFetch {
		t.Errorf("expected type %s, got %s", WeatherFetch, err.Type)
	}
	if err.Details["location"] != "大阪" {
		t.Error("expected detail to be attached")
	}
	if !errors.Is(err, err) {
		t.Error("AppError should compare equal to itself via errors.Is")
	}
	if ClassifyOf(err) != WeatherFetch {
		t.Errorf("ClassifyOf should recover the original type")
	}
	if ClassifyOf(cause) != UnknownError {
		t.Errorf("ClassifyOf of a plain error should be unknown_error")
	}
}

func TestMessageFallsBackToUnknown(t *testing.T) {
	if Message(ErrorType("not_a_real_type"), "en") != Message(UnknownError, "en") {
		t.Error("unrecognized ErrorType should fall back to UnknownError's message")
	}
	if Message(LocationNotFound, "ja") == "" {
		t.Error("expected a non-empty Japanese message")
	}
}

func TestErrorConstants(t *testing.T) {
	for i, err := range []error{ErrNotFound, ErrInvalidInput, ErrTimeout} {
		if err == nil || err.Error() == "" {
			t.Errorf("sentinel error at index %d should be non-nil with a message", i)
		}
	}
}
