package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("test error")
	if err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", err.Error())
	}
	if err.Location() == "" {
		t.Error("Expected location to be set")
	}
}

func TestWrap(t *testing.T) {
	original := errors.New("original error")
	wrapped := Wrap(original, "context message")

	if wrapped.Error() != "context message: original error" {
		t.Errorf("Unexpected wrapped message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, original) {
		t.Error("Expected wrapped error to match original via errors.Is")
	}
	if Wrap(nil, "nothing") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestWithField(t *testing.T) {
	err := New("base").WithField("provider", "google")
	fields := err.GetFields()
	if fields["provider"] != "google" {
		t.Errorf("Expected provider field, got %v", fields)
	}

	// Adding a field must not mutate the original
	err2 := err.WithField("attempt", 2)
	if _, ok := err.GetFields()["attempt"]; ok {
		t.Error("Original error was mutated by WithField")
	}
	if err2.GetFields()["attempt"] != 2 {
		t.Error("New error missing added field")
	}
}

func TestWithCode(t *testing.T) {
	err := New("base").WithCode("TEST_CODE")
	if err.GetCode() != "TEST_CODE" {
		t.Errorf("Expected code TEST_CODE, got %s", err.GetCode())
	}
}

func TestNewPhaseVerification(t *testing.T) {
	err := NewPhaseVerification("2", "diarization is FORBIDDEN in phase 2")

	expected := "Pipeline verification error in Phase 2: diarization is FORBIDDEN in phase 2"
	if got := fmt.Sprintf("%s", err.message); got != expected {
		t.Errorf("Unexpected message: %s", got)
	}
	if !errors.Is(err, ErrPhaseVerification) {
		t.Error("Expected error to match ErrPhaseVerification")
	}
	if err.GetFields()["phase"] != "2" {
		t.Error("Expected phase field to be set")
	}
}

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"unsupported audio", NewUnsupportedAudio("bad extension"), http.StatusUnprocessableEntity},
		{"phase verification", NewPhaseVerification("5", "invalid label"), http.StatusInternalServerError},
		{"invalid input", NewInvalidInput("missing file"), http.StatusBadRequest},
		{"unknown error", errors.New("mystery"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("outer: %w", ErrUnavailable), http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatusFromError(tc.err); got != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if code := GetErrorCode(NewUnsupportedAudio("x")); code != "UNSUPPORTED_AUDIO" {
		t.Errorf("Expected UNSUPPORTED_AUDIO, got %s", code)
	}
	if code := GetErrorCode(errors.New("plain")); code != "" {
		t.Errorf("Expected empty code for plain error, got %s", code)
	}
}
