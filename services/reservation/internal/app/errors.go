package app

import "errors"

var (
	// ErrInvalidInput indicates a malformed or self-contradictory request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates an existing reservation overlaps the requested slot.
	ErrConflict = errors.New("reservation conflicts with an existing booking")
	// ErrNotFound indicates the referenced reservation or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the caller identity carries no phone number.
	ErrUnauthorized = errors.New("unauthorized")
)
