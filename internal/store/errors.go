package store

import (
	"fmt"

	"github.com/sundayezeilo/shorty/internal/errx"
)

// NotFound builds the error backends return for a missing code.
func NotFound(op, code string) error {
	return errx.E(op, errx.NotFound, fmt.Errorf("%w: %q", ErrNotFound, code))
}

// Duplicate builds the error backends return when Put hits an existing code.
func Duplicate(op, code string) error {
	return errx.E(op, errx.Conflict, fmt.Errorf("%w: %q", ErrDuplicateCode, code))
}

// Unavailable wraps a backend I/O failure.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return errx.E(op, errx.Unavailable, fmt.Errorf("%w: %w", ErrUnavailable, err))
}
