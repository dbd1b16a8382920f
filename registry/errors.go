package registry

import "errors"

// Error taxonomy shared by every component that reads or mutates sessions.
// Callers match with errors.Is; the wrapped message carries the detail.
var (
	// ErrValidation is bad caller input. Nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is an unknown session, identity or participant
	ErrNotFound = errors.New("not found")
	// ErrInactive is an operation against a session that has ended
	ErrInactive = errors.New("session is not active")
)
