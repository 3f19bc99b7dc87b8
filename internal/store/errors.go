package store

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	// ErrReferenced is returned when a row cannot be deleted because other
	// rows still point at it.
	ErrReferenced = errors.New("still referenced")
)
