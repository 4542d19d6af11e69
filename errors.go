package thumbkit

import (
	"errors"
	"fmt"
)

// Common image handle errors
var (
	ErrNotJPEG        = errors.New("not a JPEG image")
	ErrImageClosed    = errors.New("image handle already closed")
	ErrDecode         = errors.New("decode failed")
	ErrEncode         = errors.New("encode failed")
	ErrNoOutput       = errors.New("no output target set")
	ErrInvalidSize    = errors.New("invalid target size")
	ErrInvalidQuality = errors.New("quality must be between 1 and 100")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotJPEG reports whether an error indicates that the input was not a
// JPEG image
func IsNotJPEG(err error) bool {
	return errors.Is(err, ErrNotJPEG)
}

// IsClosed reports whether an error indicates a use-after-close of an
// image handle
func IsClosed(err error) bool {
	return errors.Is(err, ErrImageClosed)
}
