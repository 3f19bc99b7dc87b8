// Package scheduling decides whether an appointment may be booked or an
// availability window published. Decisions read through the
// store.SchedulingTx of the caller's locked transaction, so the check and
// the write that follows it commit atomically.
package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/store"
)

type Outcome string

const (
	Admit  Outcome = "ADMIT"
	Reject Outcome = "REJECT"
)

type Reason string

const (
	ReasonServiceNotFound Reason = "SERVICE_NOT_FOUND"
	ReasonNotAvailable    Reason = "NOT_AVAILABLE"
	ReasonOverlap         Reason = "OVERLAP"
	ReasonInvalidRange    Reason = "INVALID_RANGE"
)

const (
	CheckBooking = "book_appointment"
	CheckPublish = "publish_availability"
)

// Decision is the result of a check. Interval is the candidate that was
// evaluated; End is its derived end time for bookings.
type Decision struct {
	Outcome   Outcome
	Reason    Reason
	Interval  domain.TimeInterval
	End       domain.TimeOfDay
	Service   domain.Service
	Conflicts []domain.TimeInterval
}

func (d Decision) Admitted() bool {
	return d.Outcome == Admit
}

// Err converts a rejection into the service error taxonomy. It returns nil
// for admitted decisions.
func (d Decision) Err() error {
	switch {
	case d.Admitted():
		return nil
	case d.Reason == ReasonServiceNotFound:
		return service.NotFound("service")
	case d.Reason == ReasonInvalidRange:
		return service.Invalid("end_time", "must be after start_time")
	default:
		return &service.ConflictError{Reason: string(d.Reason), Interval: d.Interval, Conflicts: d.Conflicts}
	}
}

// Rules selects the overlap rule applied to each kind of interval.
type Rules struct {
	Appointments domain.OverlapRule
	Availability domain.OverlapRule
}

func DefaultRules() Rules {
	return Rules{Appointments: domain.OverlapStrict, Availability: domain.OverlapStrict}
}

// Observer receives every decision, e.g. to count them.
type Observer interface {
	ObserveDecision(check string, outcome Outcome, reason Reason)
}

type Resolver struct {
	rules    Rules
	observer Observer
}

func NewResolver(rules Rules, observer Observer) *Resolver {
	if rules.Appointments == "" {
		rules.Appointments = domain.OverlapStrict
	}
	if rules.Availability == "" {
		rules.Availability = domain.OverlapStrict
	}
	return &Resolver{rules: rules, observer: observer}
}

func (r *Resolver) Rules() Rules {
	return r.rules
}

type BookingRequest struct {
	EmployeeID uuid.UUID
	ServiceID  uuid.UUID
	Date       domain.CalendarDate
	Start      domain.TimeOfDay
}

// CanBookAppointment admits a booking when a published window covers the
// whole service duration and no non-cancelled appointment overlaps it.
// The returned error is reserved for store failures.
func (r *Resolver) CanBookAppointment(ctx context.Context, tx store.SchedulingTx, req BookingRequest) (Decision, error) {
	d, err := r.canBook(ctx, tx, req)
	if err != nil {
		return Decision{}, err
	}
	r.observe(CheckBooking, d)
	return d, nil
}

func (r *Resolver) canBook(ctx context.Context, tx store.SchedulingTx, req BookingRequest) (Decision, error) {
	svc, err := tx.GetService(ctx, req.ServiceID)
	if errors.Is(err, store.ErrNotFound) {
		return Decision{
			Outcome:  Reject,
			Reason:   ReasonServiceNotFound,
			Interval: domain.TimeInterval{Date: req.Date, Start: req.Start, End: req.Start},
		}, nil
	}
	if err != nil {
		return Decision{}, err
	}

	end := req.Start.AddMinutes(svc.DurationMinutes)
	interval := domain.TimeInterval{Date: req.Date, Start: req.Start, End: end}
	d := Decision{Interval: interval, End: end, Service: svc}

	// An interval running past midnight cannot be covered by any window.
	if !interval.Valid() {
		d.Outcome, d.Reason = Reject, ReasonNotAvailable
		return d, nil
	}

	covering, err := store.FindCoveringWindows(ctx, tx, req.EmployeeID, interval)
	if err != nil {
		return Decision{}, err
	}
	if len(covering) == 0 {
		d.Outcome, d.Reason = Reject, ReasonNotAvailable
		return d, nil
	}

	clashes, err := store.FindOverlappingAppointments(ctx, tx, req.EmployeeID, interval, r.rules.Appointments, []domain.AppointmentStatus{domain.StatusCancelled})
	if err != nil {
		return Decision{}, err
	}
	if len(clashes) > 0 {
		d.Outcome, d.Reason = Reject, ReasonOverlap
		for _, a := range clashes {
			d.Conflicts = append(d.Conflicts, a.Interval())
		}
		return d, nil
	}

	d.Outcome = Admit
	return d, nil
}

type PublishRequest struct {
	EmployeeID uuid.UUID
	Date       domain.CalendarDate
	Start      domain.TimeOfDay
	End        domain.TimeOfDay
	// ExcludeID is the window being replaced on update.
	ExcludeID uuid.UUID
}

// CanPublishAvailability admits a window that is a valid range and does not
// conflict with the employee's other windows on that date.
func (r *Resolver) CanPublishAvailability(ctx context.Context, tx store.SchedulingTx, req PublishRequest) (Decision, error) {
	d, err := r.canPublish(ctx, tx, req)
	if err != nil {
		return Decision{}, err
	}
	r.observe(CheckPublish, d)
	return d, nil
}

func (r *Resolver) canPublish(ctx context.Context, tx store.SchedulingTx, req PublishRequest) (Decision, error) {
	interval := domain.TimeInterval{Date: req.Date, Start: req.Start, End: req.End}
	d := Decision{Interval: interval, End: req.End}

	if !interval.Valid() {
		d.Outcome, d.Reason = Reject, ReasonInvalidRange
		return d, nil
	}

	clashes, err := store.FindOverlappingWindows(ctx, tx, req.EmployeeID, interval, r.rules.Availability, req.ExcludeID)
	if err != nil {
		return Decision{}, err
	}
	if len(clashes) > 0 {
		d.Outcome, d.Reason = Reject, ReasonOverlap
		for _, w := range clashes {
			d.Conflicts = append(d.Conflicts, w.Interval())
		}
		return d, nil
	}

	d.Outcome = Admit
	return d, nil
}

// Siblings checks a batch of candidate windows against each other. It
// returns the first rejected candidate's decision, or an admitted decision
// when no two candidates conflict.
func (r *Resolver) Siblings(candidates []domain.TimeInterval) Decision {
	for i := range candidates {
		for j := 0; j < i; j++ {
			a, b := candidates[j], candidates[i]
			sameStart := a.Date == b.Date && a.Start == b.Start
			if sameStart || a.Overlaps(b, r.rules.Availability) {
				d := Decision{Outcome: Reject, Reason: ReasonOverlap, Interval: b, End: b.End, Conflicts: []domain.TimeInterval{a}}
				r.observe(CheckPublish, d)
				return d
			}
		}
	}
	return Decision{Outcome: Admit}
}

func (r *Resolver) observe(check string, d Decision) {
	if r.observer != nil {
		r.observer.ObserveDecision(check, d.Outcome, d.Reason)
	}
}
