// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "errors"
import "fmt"

var (
	// ErrCapacity is wrapped by every *CapacityError.
	ErrCapacity = errors.New("fingerprint does not fit its storage")

	// ErrUnknownMethod is returned when a method name or number is
	// not in the registry.
	ErrUnknownMethod = errors.New("unknown popcount method")

	// ErrUnknownAlignment is returned when an alignment class name
	// or number is not in the registry.
	ErrUnknownAlignment = errors.New("unknown alignment class")

	// ErrUnknownIntersect is returned for an unknown
	// IntersectAlgorithm.
	ErrUnknownIntersect = errors.New("unknown intersect algorithm")

	// ErrMethodUnavailable is returned when a configuration asks for
	// a method the CPU does not support.
	ErrMethodUnavailable = errors.New("popcount method not available on this CPU")

	// ErrMethodNotInClass is returned when a configuration assigns a
	// method to an alignment class too weakly aligned for it.
	ErrMethodNotInClass = errors.New("popcount method needs a stricter alignment than the class provides")
)

// CapacityError is returned by the selectors when a fingerprint of
// NumBits bits (NumBytes bytes) does not fit into StorageLen bytes, or
// when any of the lengths is negative.
type CapacityError struct {
	NumBits    int
	NumBytes   int
	StorageLen int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("fppop: %d bit fingerprint (%d bytes) does not fit %d bytes of storage",
		e.NumBits, e.NumBytes, e.StorageLen)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }
