package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/scheduling"
	"salonbook/backend/internal/store"
)

// maxRangeDays bounds range listings.
const maxRangeDays = 92

// TransitionObserver is told about every committed status change.
type TransitionObserver interface {
	ObserveTransition(from, to domain.AppointmentStatus)
}

type Service struct {
	sched    store.Scheduler
	repo     store.AppointmentRepository
	resolver *scheduling.Resolver
	notifier service.ChangeNotifier
	observer TransitionObserver
}

type Option func(*Service)

func WithChangeNotifier(n service.ChangeNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithTransitionObserver(o TransitionObserver) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(sched store.Scheduler, repo store.AppointmentRepository, resolver *scheduling.Resolver, opts ...Option) *Service {
	s := &Service{sched: sched, repo: repo, resolver: resolver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BookInput struct {
	Actor          domain.Actor
	EmployeeID     uuid.UUID
	ServiceID      uuid.UUID
	Date           domain.CalendarDate
	Start          domain.TimeOfDay
	IdempotencyKey string
}

// ValidateBook checks the shape of a booking request.
func ValidateBook(in BookInput) error {
	switch {
	case in.Actor.UserID == uuid.Nil:
		return service.Invalid("client_id", "is required")
	case in.EmployeeID == uuid.Nil:
		return service.Invalid("employee_id", "is required")
	case in.ServiceID == uuid.Nil:
		return service.Invalid("service_id", "is required")
	case in.Date.IsZero():
		return service.Invalid("date", "is required")
	case in.Start < 0 || in.Start >= domain.MinutesPerDay:
		return service.Invalid("start_time", "must be between 00:00 and 23:59")
	case len(strings.TrimSpace(in.IdempotencyKey)) > 256:
		return service.Invalid("idempotency_key", "too long")
	}
	return nil
}

// Book admits and stores a pending appointment for the acting client.
// Replaying a request with the same idempotency key returns the stored
// appointment instead of booking twice.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	if err := ValidateBook(in); err != nil {
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		ClientID:   in.Actor.UserID,
		EmployeeID: in.EmployeeID,
		ServiceID:  in.ServiceID,
		Date:       in.Date,
		StartTime:  in.Start,
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("salonbook:book_appointment:"+in.Actor.UserID.String()+":"+key))
	}

	var (
		out    domain.Appointment
		stored bool
	)
	keys := []store.DayKey{{EmployeeID: in.EmployeeID, Date: in.Date}}
	err := s.sched.InEmployeeDayTransaction(ctx, keys, func(ctx context.Context, tx store.SchedulingTx) error {
		if appt.ID != uuid.Nil {
			existing, err := tx.GetAppointment(ctx, appt.ID)
			switch {
			case err == nil:
				if !sameBooking(existing, appt) {
					return store.ErrIdempotencyConflict
				}
				out = existing
				return nil
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}

		d, err := s.resolver.CanBookAppointment(ctx, tx, scheduling.BookingRequest{
			EmployeeID: in.EmployeeID,
			ServiceID:  in.ServiceID,
			Date:       in.Date,
			Start:      in.Start,
		})
		if err != nil {
			return err
		}
		if err := d.Err(); err != nil {
			return err
		}

		appt.DurationMinutes = d.Service.DurationMinutes
		out, err = tx.InsertAppointment(ctx, appt)
		stored = err == nil
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	if stored {
		s.changed(ctx, out.EmployeeID)
	}
	return out, nil
}

func sameBooking(a, b domain.Appointment) bool {
	return a.ClientID == b.ClientID &&
		a.EmployeeID == b.EmployeeID &&
		a.ServiceID == b.ServiceID &&
		a.Date == b.Date &&
		a.StartTime == b.StartTime
}

// UpdateStatus applies a status transition on behalf of actor. Failures are
// reported in this order: not found, forbidden, terminal state, illegal edge.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, service.Invalid("appointment_id", "is required")
	}
	if _, err := domain.ParseAppointmentStatus(string(to)); err != nil {
		return domain.Appointment{}, service.Invalid("status", err.Error())
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, service.NotFound("appointment")
		}
		return domain.Appointment{}, err
	}

	var (
		out  domain.Appointment
		from domain.AppointmentStatus
	)
	keys := []store.DayKey{{EmployeeID: current.EmployeeID, Date: current.Date}}
	err = s.sched.InEmployeeDayTransaction(ctx, keys, func(ctx context.Context, tx store.SchedulingTx) error {
		appt, err := tx.GetAppointment(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return service.NotFound("appointment")
			}
			return err
		}
		if !mayTransition(actor, appt, to) {
			return service.ErrForbidden
		}
		if appt.Status.Terminal() {
			return fmt.Errorf("appointment is %s: %w", appt.Status, service.ErrTerminalState)
		}
		if !appt.Status.CanTransitionTo(to) {
			return service.Invalid("status", fmt.Sprintf("cannot change from %s to %s", appt.Status, to))
		}

		from = appt.Status
		out, err = tx.SetAppointmentStatus(ctx, id, to)
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	if s.observer != nil {
		s.observer.ObserveTransition(from, to)
	}
	s.changed(ctx, out.EmployeeID)
	return out, nil
}

// mayTransition: admins and the assigned employee may apply any transition;
// the booking client may only cancel.
func mayTransition(actor domain.Actor, appt domain.Appointment, to domain.AppointmentStatus) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.Role == domain.RoleEmployee && actor.UserID == appt.EmployeeID:
		return true
	case actor.UserID == appt.ClientID:
		return to == domain.StatusCancelled
	default:
		return false
	}
}

func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Appointment, error) {
	return s.UpdateStatus(ctx, actor, id, domain.StatusCancelled)
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !actor.ActsFor(appt.ClientID) && !actor.ActsFor(appt.EmployeeID) {
		return domain.Appointment{}, service.ErrForbidden
	}
	return appt, nil
}

// ListByClient returns the client's non-cancelled appointments with their
// service and employee names, newest first.
func (s *Service) ListByClient(ctx context.Context, actor domain.Actor, clientID uuid.UUID) ([]store.ClientEntry, error) {
	if clientID == uuid.Nil {
		return nil, service.Invalid("client_id", "is required")
	}
	if !actor.ActsFor(clientID) {
		return nil, service.ErrForbidden
	}
	return s.repo.ListClientHistory(ctx, clientID)
}

// ListByEmployee returns every appointment assigned to the employee, newest first.
func (s *Service) ListByEmployee(ctx context.Context, actor domain.Actor, employeeID uuid.UUID) ([]domain.Appointment, error) {
	if employeeID == uuid.Nil {
		return nil, service.Invalid("employee_id", "is required")
	}
	if !actor.ActsFor(employeeID) {
		return nil, service.ErrForbidden
	}
	return s.repo.List(ctx, store.Query{
		Filter: store.Filter{}.Eq(store.FieldEmployeeID, employeeID),
		Order:  store.Desc(store.FieldDate, store.FieldStartTime),
	})
}

func (s *Service) ListAll(ctx context.Context, actor domain.Actor) ([]domain.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, service.ErrForbidden
	}
	return s.repo.List(ctx, store.Query{
		Order: store.Desc(store.FieldDate, store.FieldStartTime),
	})
}

// ValidateRange checks a date range used for listings.
func ValidateRange(r domain.DateRange) error {
	if r.From.IsZero() || r.To.IsZero() {
		return service.Invalid("date_range", "start_date and end_date are required")
	}
	if !r.Valid() {
		return service.Invalid("date_range", "end_date must not be before start_date")
	}
	if r.Days() > maxRangeDays {
		return service.Invalid("date_range", fmt.Sprintf("must not exceed %d days", maxRangeDays))
	}
	return nil
}

// ListByEmployeeInRange returns the employee's pending and confirmed
// appointments in r with their service and client, ordered by date and start.
func (s *Service) ListByEmployeeInRange(ctx context.Context, employeeID uuid.UUID, r domain.DateRange) ([]store.CalendarEntry, error) {
	if employeeID == uuid.Nil {
		return nil, service.Invalid("employee_id", "is required")
	}
	if err := ValidateRange(r); err != nil {
		return nil, err
	}
	return s.repo.ListCalendar(ctx, employeeID, r)
}

func (s *Service) changed(ctx context.Context, employeeID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.ScheduleChanged(ctx, employeeID)
	}
}
