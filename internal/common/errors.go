// Package common defines the error taxonomy and small helpers shared by the
// photogallery server, its storage backends and the admin CLI. Callers should
// use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyExists is the user-store flavour of ErrConflict.
	ErrAlreadyExists = fmt.Errorf("already exists: %w", ErrConflict)

	// ErrNotFound means no record exists for the given key.
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks malformed input, rejected before any store call.
	ErrInvalid = errors.New("invalid input")

	// ErrUnavailable wraps backend failures: unreachable, timed out, cancelled.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrStorage marks a failed object-storage upload.
	ErrStorage = errors.New("object storage error")

	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrInvalidToken)
)

// Invalidf builds an ErrInvalid carrying a user-facing reason.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Unavailable wraps a backend error so that it matches ErrUnavailable while
// keeping the original cause reachable through errors.Unwrap chains.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
