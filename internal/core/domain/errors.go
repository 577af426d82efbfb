package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrEmptyRound      = errors.New("round has no votes")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("store unavailable")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInternal        = errors.New("internal server error")

	// ErrResourceExhausted is returned when no unused session code could be found.
	// It matches ErrConflict so callers can treat it as retryable.
	ErrResourceExhausted = fmt.Errorf("%w: session code space exhausted", ErrConflict)

	// Store level errors. The service never returns ErrVersionConflict to its callers.
	ErrVersionConflict = errors.New("session version conflict")
	ErrAlreadyExists   = errors.New("session already exists")
)
