package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("accumulates field errors", func(t *testing.T) {
		t.Parallel()

		vErr := &ValidationError{}
		if vErr.HasErrors() {
			t.Fatal("expected no errors initially")
		}

		vErr.add("title", "title is required")
		vErr.add("starts_at", "start is required")
		if !vErr.HasErrors() || len(vErr.FieldErrors) != 2 {
			t.Fatalf("unexpected state %#v", vErr.FieldErrors)
		}
	})

	t.Run("merge copies entries", func(t *testing.T) {
		t.Parallel()

		dst := &ValidationError{}
		src := &ValidationError{}
		src.add("name", "name is required")

		dst.merge(src)
		dst.merge(nil)
		if dst.FieldErrors["name"] != "name is required" {
			t.Fatalf("unexpected merge result %#v", dst.FieldErrors)
		}
	})

	t.Run("unwraps through error chains", func(t *testing.T) {
		t.Parallel()

		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		wrapped := fmt.Errorf("create group: %w", vErr)

		var target *ValidationError
		if !errors.As(wrapped, &target) {
			t.Fatal("expected errors.As to find the validation error")
		}
	})
}
