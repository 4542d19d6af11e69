package memstream

import (
	"errors"
	"fmt"
)

// Common stream errors
var (
	// ErrAllocation indicates the finalized output would exceed the
	// registry's allocation limit. The destination's Size is left at zero.
	ErrAllocation = errors.New("output exceeds allocation limit")

	// ErrBackingResource indicates the temporary backing file could not be
	// created or populated.
	ErrBackingResource = errors.New("backing file unavailable")

	// ErrClosed indicates an operation on a stream after Close.
	ErrClosed = errors.New("stream already closed")

	// ErrInvalidOffset indicates a seek before the start of the stream.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrInvalidWhence indicates an unrecognized seek whence value.
	ErrInvalidWhence = errors.New("invalid whence")
)

// StreamError records an error and the stream operation that caused it
type StreamError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StreamError) Error() string {
	return fmt.Sprintf("memstream: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsAllocation reports whether an error indicates that finalizing a write
// stream would exceed the registry's allocation limit
func IsAllocation(err error) bool {
	return errors.Is(err, ErrAllocation)
}

// IsBackingResource reports whether an error indicates a temporary backing
// file failure
func IsBackingResource(err error) bool {
	return errors.Is(err, ErrBackingResource)
}
