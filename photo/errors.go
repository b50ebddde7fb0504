package photo

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType marks a candidate outside the accepted content types
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrDecode marks a file whose dimensions could not be read
	ErrDecode = errors.New("cannot decode image")
	// ErrCompression marks a rejection by the compression engine
	ErrCompression = errors.New("compression failed")
)

// DecodeError is returned when probing a file's dimensions fails
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// CompressionError is returned when the engine rejects a file
type CompressionError struct {
	Name string
	Err  error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("failed to compress %s: %v", e.Name, e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

func (e *CompressionError) Is(target error) bool { return target == ErrCompression }
