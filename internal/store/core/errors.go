package core

import "errors"

var (
	// ErrNotFound is returned by lookups that match no user.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	// It is the concurrency-control signal the reconciliation engine retries
	// on; adapters must map their native constraint errors to it.
	ErrConflict = errors.New("uniqueness conflict")
)
