// Package service holds the error taxonomy shared by the use-case packages
// and the transports that map it onto status codes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrTerminalState = errors.New("appointment is in a terminal state")
)

// ValidationError reports malformed input. Field is empty when the error is
// not tied to a single input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// ConflictError is a scheduling rejection. Interval is the candidate that
// was rejected and Conflicts the stored intervals it collided with.
type ConflictError struct {
	Reason    string
	Interval  domain.TimeInterval
	Conflicts []domain.TimeInterval
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) > 0 {
		return fmt.Sprintf("%s: %s conflicts with %s", e.Reason, e.Interval, e.Conflicts[0])
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Interval)
}

func (e *ConflictError) Is(target error) bool {
	return target == store.ErrConflict
}

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindForbidden       Kind = "FORBIDDEN"
	KindTerminalState   Kind = "TERMINAL_STATE"
	KindUpstreamFailure Kind = "UPSTREAM_FAILURE"
)

// KindOf classifies err. Anything unrecognised is an upstream failure.
func KindOf(err error) Kind {
	var vErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return KindValidation
	case errors.Is(err, ErrTerminalState):
		return KindTerminalState
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrIdempotencyConflict), errors.Is(err, store.ErrReferenced):
		return KindConflict
	default:
		return KindUpstreamFailure
	}
}

// ConflictInterval returns the rejected interval carried by err, if any.
func ConflictInterval(err error) (domain.TimeInterval, bool) {
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return cErr.Interval, true
	}
	return domain.TimeInterval{}, false
}

func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, store.ErrNotFound)
}

// ChangeNotifier is told after a write to an employee's schedule commits.
type ChangeNotifier interface {
	ScheduleChanged(ctx context.Context, employeeID uuid.UUID)
}
