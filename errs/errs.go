// Package errs holds the error kinds shared by the recommendation pipeline.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown fund ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSeries is returned for an empty history or one holding non-finite values.
	ErrInvalidSeries = errors.New("invalid historical series")

	// ErrEmptyCatalog aborts startup: nothing can be matched against an empty catalog.
	ErrEmptyCatalog = errors.New("empty fund catalog")

	// ErrUpstreamUnavailable marks a failed or timed out market-data fetch.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNoMatches is returned when matching yields no fund at all.
	ErrNoMatches = errors.New("no matching funds")

	// ErrInvalidRequest is returned for bodies that cannot be decoded.
	ErrInvalidRequest = errors.New("invalid request")
)

// CoercionFallback describes a profile field that could not be read and was
// replaced with its default. It is logged, never returned to callers.
type CoercionFallback struct {
	Field string
	Raw   string
	Used  any
}

func (e *CoercionFallback) Error() string {
	return fmt.Sprintf("field %s: cannot use %q, falling back to %v", e.Field, e.Raw, e.Used)
}
