package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
	if err.Kind != KindTransient {
		t.Fatalf("expected transient kind, got %s", err.Kind)
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New(KindInvalidArgument, "TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithMessageKeepsIdentity(t *testing.T) {
	err := ErrNotFound.WithMessage("slide %d not found", 7)

	if err.Message != "slide 7 not found" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if !stdErrors.Is(err, ErrNotFound) {
		t.Fatal("expected copy to match its sentinel")
	}
	if stdErrors.Is(err, ErrUnauthorized) {
		t.Fatal("expected copy not to match a different sentinel")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	wrapped := fmt.Errorf("lookup: %w", ErrConflict)
	if out := FromError(wrapped); out.Kind != KindConflict {
		t.Fatalf("expected conflict kind through wrapping, got %s", out.Kind)
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternal.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestKindHelpers(t *testing.T) {
	if KindOf(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
	if !IsKind(NewUnauthorized("only the creator may do that"), KindUnauthorized) {
		t.Fatal("expected unauthorized kind")
	}
	if IsKind(stdErrors.New("x"), KindNotFound) {
		t.Fatal("foreign errors must not report not_found")
	}
	if KindOf(stdErrors.New("x")) != KindInternal {
		t.Fatal("foreign errors must default to internal")
	}
}

func TestNewInvalidArgument(t *testing.T) {
	err := NewInvalidArgument("invalid payload")
	if err.Code != ErrInvalidArgument.Code {
		t.Fatalf("expected %s, got %s", ErrInvalidArgument.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrInvalidArgument.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}
