package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeDataUnavailable, "year not published")
		if err.Error() != "[DATA_UNAVAILABLE] year not published" {
			t.Errorf("expected [DATA_UNAVAILABLE] year not published, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("connection refused")
		err := Wrap(original, CodeProvider, "catalog fetch failed")
		expected := "[PROVIDER_ERROR] catalog fetch failed: connection refused"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeSchema, "count column not numeric")
		if !IsCode(err, CodeSchema) {
			t.Error("expected IsCode to return true for CodeSchema")
		}
		if IsCode(err, CodeNoData) {
			t.Error("expected IsCode to return false for CodeNoData")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("bad status")
		err := Wrap(original, CodeProvider, "fetch failed")
		if !IsCode(err, CodeProvider) {
			t.Error("expected IsCode to return true for wrapped CodeProvider")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeDataUnavailable, "year not published")
		err = AddContext(err, CtxYear, 2031)
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError after AddContext")
		}
		if de.Context[CtxYear] != 2031 {
			t.Errorf("expected year context 2031, got %v", de.Context[CtxYear])
		}
	})

	t.Run("AddContextForeignError", func(t *testing.T) {
		err := AddContext(errors.New("plain"), CtxOperation, "fetch")
		if !IsCode(err, CodeInternal) {
			t.Error("expected foreign error to be wrapped as CodeInternal")
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		if CodeOf(New(CodeNoData, "no usable years")) != CodeNoData {
			t.Error("expected CodeNoData")
		}
		if CodeOf(errors.New("plain")) != CodeInternal {
			t.Error("expected CodeInternal for foreign error")
		}
	})
}
