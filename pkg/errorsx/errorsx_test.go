package errorsx

import (
	"errors"
	"testing"
)

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonStoreWrite)
	if Reason(err) != ReasonStoreWrite {
		t.Fatalf("expected reason %s, got %s", ReasonStoreWrite, Reason(err))
	}
	if !HasReason(err, ReasonStoreWrite) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonInvalidQuantity)
	second := Wrap(first, ReasonStoreWrite)
	if Reason(second) != ReasonInvalidQuantity {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestWrapfKeepsChain(t *testing.T) {
	base := assertErr{}
	err := Wrapf(base, ReasonStoreRead, "read %s", "orders.json")
	if err.Error() != "read orders.json: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to match base")
	}
	if Reason(err) != ReasonStoreRead {
		t.Fatalf("expected store_read, got %s", Reason(err))
	}
}

func TestReasonOfPlainError(t *testing.T) {
	if Reason(errors.New("x")) != ReasonUnknown {
		t.Fatalf("expected unknown reason")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown reason for nil")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
