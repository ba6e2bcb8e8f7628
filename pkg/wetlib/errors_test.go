package wetlib

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	base := errors.New("boom")

	ne := netErr("GET", "http://x", base)
	if !IsNetworkError(ne) || !errors.Is(ne, base) {
		t.Fatalf("netErr wrapping broken: %v", ne)
	}
	// Wrapping an already-wrapped error is a no-op.
	if again := netErr("GET", "http://y", ne); again != ne {
		t.Fatalf("double wrap: %v", again)
	}

	se := storeErr("write", "k", base)
	if !IsStorageError(se) || !errors.Is(se, base) {
		t.Fatalf("storeErr wrapping broken: %v", se)
	}
	if again := storeErr("write", "k2", se); again != se {
		t.Fatalf("double wrap: %v", again)
	}

	ve := &ValidationError{Subject: "bounds", Err: base}
	if !IsValidationError(fmt.Errorf("outer: %w", ve)) {
		t.Fatalf("ValidationError must be detectable through wrapping")
	}
	if IsNetworkError(se) || IsStorageError(ne) {
		t.Fatalf("category checks must not cross")
	}
}

func TestIsTransient(t *testing.T) {
	transient := []error{
		errors.New("read tcp: connection reset by peer"),
		errors.New("dial tcp: connection refused"),
		errors.New("lookup api.example: no such host"),
		fmt.Errorf("request: %w", errors.New("context deadline exceeded (Client.Timeout exceeded)")),
	}
	for _, err := range transient {
		if !isTransient(err) {
			t.Fatalf("expected transient: %v", err)
		}
	}

	permanent := []error{
		nil,
		context.Canceled,
		errors.New("unexpected status 422: validation failed"),
	}
	for _, err := range permanent {
		if isTransient(err) {
			t.Fatalf("expected permanent: %v", err)
		}
	}
}
