package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "blog.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "blog.yaml" {
			t.Errorf("expected context file=blog.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", TemplateError("missing header").Build())

		if !IsClassified(err) {
			t.Error("expected wrapped error to be classified")
		}
		if !HasCategory(err, CategoryTemplate) {
			t.Error("expected error to have template category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to report internal category")
		}
	})

	t.Run("Cause is unwrapped", func(t *testing.T) {
		cause := errors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write page").Build()

		if !errors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}
		if err.Error() != "[filesystem] write page: disk full" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("WithContext does not mutate the receiver", func(t *testing.T) {
		base := BuildError("slug collision").Build()
		derived := base.WithContext("slug", "hello")

		if _, ok := base.Context().Get("slug"); ok {
			t.Error("expected base context to stay untouched")
		}
		if v, _ := derived.Context().GetString("slug"); v != "hello" {
			t.Errorf("expected derived slug context, got %q", v)
		}
		if !errors.Is(derived, base) {
			t.Error("expected derived error to match base by category and message")
		}
	})
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "shared": "left"}
	b := ErrorContext{"b": 2, "shared": "right"}

	merged := a.Merge(b)
	if merged["shared"] != "right" {
		t.Errorf("expected other to take precedence, got %v", merged["shared"])
	}
	if len(merged) != 3 {
		t.Errorf("expected 3 keys, got %d", len(merged))
	}
	if ErrorContext(nil).Merge(b)["b"] != 2 {
		t.Error("expected nil receiver to return other")
	}
}
