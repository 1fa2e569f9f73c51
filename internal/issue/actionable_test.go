// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "pack bundle"},
			expected: "failed to pack bundle",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "pack bundle", Resource: "./bundle.yaml"},
			expected: "failed to pack bundle: ./bundle.yaml",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "load project", Cause: errors.New("parts: expected mapping")},
			expected: "failed to load project: parts: expected mapping",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "pack bundle",
				Resource:  "./bundle.yaml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to pack bundle: ./bundle.yaml: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("missing mandatory file")
	err := NewErrorContext().WithOperation("pack bundle").Wrap(sentinel).BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("permission denied")
	err := &ActionableError{
		Operation:   "write archive",
		Resource:    "demo.zip",
		Suggestions: []string{"Check free disk space", "Check permissions"},
		Cause:       errors.Join(errors.New("rename failed"), inner),
	}

	plain := err.Format(false)
	if !strings.HasPrefix(plain, "failed to write archive: demo.zip") {
		t.Errorf("Format(false) = %q", plain)
	}
	for _, s := range err.Suggestions {
		if !strings.Contains(plain, "• "+s) {
			t.Errorf("Format(false) missing suggestion %q", s)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. rename failed") {
		t.Errorf("Format(true) = %q, want the error chain", verbose)
	}
}

func TestActionableError_HasSuggestions(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).HasSuggestions() {
		t.Error("HasSuggestions() = true without suggestions")
	}
	if !(&ActionableError{Operation: "x", Suggestions: []string{"y"}}).HasSuggestions() {
		t.Error("HasSuggestions() = false with suggestions")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	got := NewErrorContext().
		WithOperation("pack charm").
		WithResource("/proj").
		WithIssue(LifecycleFailedId).
		WithSuggestion("a").
		WithSuggestions("b", "c").
		Wrap(cause).
		Build()

	if got.Operation != "pack charm" || got.Resource != "/proj" || got.Issue != LifecycleFailedId || got.Cause != cause {
		t.Errorf("Build() = %+v", got)
	}
	if strings.Join(got.Suggestions, ",") != "a,b,c" {
		t.Errorf("Suggestions = %v", got.Suggestions)
	}

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	cause := errors.New("boom")
	got := WrapWithOperation(cause, "load configuration")
	if got.Operation != "load configuration" || !errors.Is(got, cause) {
		t.Errorf("WrapWithOperation() = %+v", got)
	}
}
