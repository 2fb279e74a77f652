package video

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame is returned by a Handle that wraps no frame.
	ErrEmptyFrame = errors.New("video: empty frame")
	// ErrUnsupportedConversion is returned when a frame cannot be turned into
	// I420. It is an expected outcome for some inputs, not a fatal error.
	ErrUnsupportedConversion = errors.New("video: unsupported conversion")
	// ErrNotMappable is returned by plane accessors of frames that are not in
	// CPU memory. Use ToPlanar instead.
	ErrNotMappable = errors.New("video: frame is not mappable")
)

// InsufficientBufferError tells the caller that the buffer provided is not sufficient/big
// enough to hold the whole frame.
type InsufficientBufferError struct {
	RequiredSize int
}

func (e *InsufficientBufferError) Error() string {
	return fmt.Sprintf("provided buffer doesn't meet the size requirement of length, %d", e.RequiredSize)
}
