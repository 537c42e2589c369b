package core

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP codes;
// everything else surfaces as a 500.
var (
	// ErrNotFound marks an unknown document, page or user.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input that can never succeed and must be rejected
	// before any external call (wrong file type, malformed filters, content
	// too short to summarize).
	ErrValidation = errors.New("validation failed")
)
