package domain

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix (missing or empty message, policy denial).
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionNotFound is returned when an operation requires a session that does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUpstream marks a failure of the generation or context collaborator.
	ErrUpstream = errors.New("upstream failure")
)
