package utils

import "errors"

// Failure taxonomy surfaced by the business layer. Handlers map these to
// distinct HTTP statuses; anything unwrapped is a terminal store failure.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrPrecondition  = errors.New("precondition failed")
	ErrForbidden     = errors.New("not allowed")
	ErrStaleRecord   = errors.New("record was modified concurrently")
)
