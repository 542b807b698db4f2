package gbaerr_test

import (
	"fmt"
	"testing"

	"github.com/pixeldrift/goba/gbaerr"
)

func TestIsMatchesPattern(t *testing.T) {
	err := gbaerr.Errorf(gbaerr.AccessViolation, "0x12345678")
	if !gbaerr.Is(err, gbaerr.AccessViolation) {
		t.Errorf("expected Is to match AccessViolation pattern")
	}
	if gbaerr.Is(err, gbaerr.ReadOnlyViolation) {
		t.Errorf("did not expect Is to match a different pattern")
	}
}

func TestIsRejectsUncuratedError(t *testing.T) {
	err := fmt.Errorf("some other error")
	if gbaerr.Is(err, gbaerr.AccessViolation) {
		t.Errorf("uncurated errors should never match a curated pattern")
	}
}

func TestErrorMessageIsFormatted(t *testing.T) {
	err := gbaerr.Errorf(gbaerr.UnknownInstruction, "0xFFFFFFFF")
	want := "unknown instruction: 0xFFFFFFFF"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestHasMatchesWrappedError(t *testing.T) {
	inner := gbaerr.Errorf(gbaerr.IOError, "byte write to halfword register")
	outer := fmt.Errorf("step failed: %w", inner)
	if !gbaerr.Has(outer, gbaerr.IOError) {
		t.Errorf("expected Has to find the wrapped io error")
	}
}
