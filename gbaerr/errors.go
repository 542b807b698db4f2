// Package gbaerr provides curated error values for the emulator core.
//
// Curated errors are built from a fixed message pattern rather than an
// ad-hoc string, so call sites can test which of the handful of error
// kinds the core raises occurred without parsing text. The pattern is
// also the formatting string passed to Errorf, in the manner of
// fmt.Errorf.
package gbaerr

import (
	"fmt"
	"strings"
)

// the five error kinds the core can raise, per the error handling design.
const (
	AccessViolation     = "access violation: %s"
	ReadOnlyViolation   = "read-only violation: %s"
	UnknownInstruction  = "unknown instruction: %s"
	IOError             = "io error: %s"
	UnimplementedFeature = "unimplemented feature: %s"
)

type curated struct {
	pattern string
	args    []interface{}
}

// Errorf creates a curated error from one of the pattern constants above
// (or any other printf-style pattern) and its arguments.
func Errorf(pattern string, args ...interface{}) error {
	return curated{pattern: pattern, args: args}
}

func (e curated) Error() string {
	return fmt.Sprintf(e.pattern, e.args...)
}

// Is reports whether err was created by Errorf with the given pattern.
// Unlike errors.Is, matching is against the formatting pattern, not
// against a sentinel value, because curated errors carry arguments.
func Is(err error, pattern string) bool {
	c, ok := err.(curated)
	if !ok {
		return false
	}
	return c.pattern == pattern
}

// Has reports whether the literal part of pattern, the text before its
// first '%', occurs anywhere in err's message. Useful
// when a curated error has been wrapped with fmt.Errorf("...: %w", err).
func Has(err error, pattern string) bool {
	if err == nil {
		return false
	}
	prefix, _, _ := strings.Cut(pattern, "%")
	return strings.Contains(err.Error(), prefix)
}
