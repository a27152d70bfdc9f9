package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "source not found")
		if err.Error() != "[NOT_FOUND] source not found" {
			t.Errorf("expected [NOT_FOUND] source not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeStorageError, "write cache entry")
		expected := "[STORAGE_ERROR] write cache entry: disk full"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "class or name required")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeQueryError, "caller traversal")
		if !IsCode(err, CodeQueryError) {
			t.Error("expected IsCode to return true for wrapped CodeQueryError")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeStorageError, "read cache entry")
		err = AddContext(err, CtxKey, "0123abcd")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected a DomainError")
		}
		if de.Context[CtxKey] != "0123abcd" {
			t.Errorf("expected context key to carry the cache key, got %v", de.Context[CtxKey])
		}
	})
}
