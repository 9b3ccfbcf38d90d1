package noisechannel

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := newErr("op", Decrypt, errors.New("tag mismatch"))

	kind, ok := KindOf(err)
	if !ok {
		t.Fatalf("expected KindOf to find an *Error")
	}
	if kind != Decrypt {
		t.Fatalf("got %v want %v", kind, Decrypt)
	}

	wrapped := errors.New("outer")
	if _, ok := KindOf(wrapped); ok {
		t.Fatalf("expected KindOf to report no Error for a plain error")
	}
}
