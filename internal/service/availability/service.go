package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/scheduling"
	"salonbook/backend/internal/store"
)

// MaxBatch bounds the number of windows published in one request.
const MaxBatch = 200

type Service struct {
	sched    store.Scheduler
	repo     store.AvailabilityRepository
	resolver *scheduling.Resolver
	notifier service.ChangeNotifier
}

func NewService(sched store.Scheduler, repo store.AvailabilityRepository, resolver *scheduling.Resolver, notifier service.ChangeNotifier) *Service {
	return &Service{sched: sched, repo: repo, resolver: resolver, notifier: notifier}
}

type Slot struct {
	Date  domain.CalendarDate
	Start domain.TimeOfDay
	End   domain.TimeOfDay
}

func (s Slot) interval() domain.TimeInterval {
	return domain.TimeInterval{Date: s.Date, Start: s.Start, End: s.End}
}

// ValidateSlot checks field shapes. Ordering of start and end is left to the
// publish check so that it is reported as INVALID_RANGE.
func ValidateSlot(s Slot) error {
	switch {
	case s.Date.IsZero():
		return service.Invalid("date", "is required")
	case s.Start < 0 || s.Start >= domain.MinutesPerDay:
		return service.Invalid("start_time", "must be between 00:00 and 23:59")
	case s.End <= 0 || s.End > domain.MinutesPerDay:
		return service.Invalid("end_time", "must be between 00:01 and 24:00")
	}
	return nil
}

func authorize(actor domain.Actor, employeeID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleEmployee && actor.UserID == employeeID {
		return nil
	}
	return service.ErrForbidden
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, slot Slot) (domain.AvailabilityWindow, error) {
	windows, err := s.CreateBatch(ctx, actor, employeeID, []Slot{slot})
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	return windows[0], nil
}

// CreateBatch publishes every slot or none. Slots are checked against each
// other and against the stored windows before anything is inserted.
func (s *Service) CreateBatch(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, slots []Slot) ([]domain.AvailabilityWindow, error) {
	if employeeID == uuid.Nil {
		return nil, service.Invalid("employee_id", "is required")
	}
	if len(slots) == 0 {
		return nil, service.Invalid("slots", "at least one slot is required")
	}
	if len(slots) > MaxBatch {
		return nil, service.Invalid("slots", fmt.Sprintf("at most %d slots per request", MaxBatch))
	}
	for i, slot := range slots {
		if err := ValidateSlot(slot); err != nil {
			if len(slots) > 1 {
				return nil, fmt.Errorf("slot %d: %w", i, err)
			}
			return nil, err
		}
	}
	if err := authorize(actor, employeeID); err != nil {
		return nil, err
	}

	candidates := make([]domain.TimeInterval, 0, len(slots))
	keys := make([]store.DayKey, 0, len(slots))
	for _, slot := range slots {
		candidates = append(candidates, slot.interval())
		keys = append(keys, store.DayKey{EmployeeID: employeeID, Date: slot.Date})
	}

	var out []domain.AvailabilityWindow
	err := s.sched.InEmployeeDayTransaction(ctx, keys, func(ctx context.Context, tx store.SchedulingTx) error {
		windows := make([]domain.AvailabilityWindow, 0, len(slots))
		for _, slot := range slots {
			d, err := s.resolver.CanPublishAvailability(ctx, tx, scheduling.PublishRequest{
				EmployeeID: employeeID,
				Date:       slot.Date,
				Start:      slot.Start,
				End:        slot.End,
			})
			if err != nil {
				return err
			}
			if err := d.Err(); err != nil {
				return err
			}
			windows = append(windows, domain.NewAvailabilityWindow(employeeID, slot.interval()))
		}
		if err := s.resolver.Siblings(candidates).Err(); err != nil {
			return err
		}

		var err error
		out, err = tx.InsertWindows(ctx, windows)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, employeeID)
	return out, nil
}

// Change replaces a window's interval and, when EmployeeID is set, its
// owner. A nil EmployeeID keeps the current owner.
type Change struct {
	EmployeeID uuid.UUID
	Slot
}

// Update moves a window, excluding the window itself from the overlap check.
// Moving to another employee requires the actor to manage both schedules.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, change Change) (domain.AvailabilityWindow, error) {
	if id == uuid.Nil {
		return domain.AvailabilityWindow{}, service.Invalid("id", "is required")
	}
	if err := ValidateSlot(change.Slot); err != nil {
		return domain.AvailabilityWindow{}, err
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	target := change.EmployeeID
	if target == uuid.Nil {
		target = current.EmployeeID
	}
	if err := authorize(actor, current.EmployeeID); err != nil {
		return domain.AvailabilityWindow{}, err
	}
	if err := authorize(actor, target); err != nil {
		return domain.AvailabilityWindow{}, err
	}

	keys := []store.DayKey{
		{EmployeeID: current.EmployeeID, Date: current.Date},
		{EmployeeID: target, Date: change.Date},
	}
	var out domain.AvailabilityWindow
	err = s.sched.InEmployeeDayTransaction(ctx, keys, func(ctx context.Context, tx store.SchedulingTx) error {
		w, err := tx.GetWindow(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if w.EmployeeID != current.EmployeeID || w.Date != current.Date {
			return fmt.Errorf("availability window %s changed concurrently: %w", id, store.ErrConflict)
		}
		d, err := s.resolver.CanPublishAvailability(ctx, tx, scheduling.PublishRequest{
			EmployeeID: target,
			Date:       change.Date,
			Start:      change.Start,
			End:        change.End,
			ExcludeID:  w.ID,
		})
		if err != nil {
			return err
		}
		if err := d.Err(); err != nil {
			return err
		}

		w.EmployeeID = target
		w.Date, w.StartTime, w.EndTime = change.Date, change.Start, change.End
		out, err = tx.UpdateWindow(ctx, w)
		return notFound(err)
	})
	if err != nil {
		return domain.AvailabilityWindow{}, err
	}
	s.changed(ctx, current.EmployeeID)
	if target != current.EmployeeID {
		s.changed(ctx, target)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return service.Invalid("id", "is required")
	}
	current, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, current.EmployeeID); err != nil {
		return err
	}

	keys := []store.DayKey{{EmployeeID: current.EmployeeID, Date: current.Date}}
	err = s.sched.InEmployeeDayTransaction(ctx, keys, func(ctx context.Context, tx store.SchedulingTx) error {
		return notFound(tx.DeleteWindow(ctx, id))
	})
	if err != nil {
		return err
	}
	s.changed(ctx, current.EmployeeID)
	return nil
}

// QueryInput selects windows. Date and Range are mutually exclusive; all
// fields are optional.
type QueryInput struct {
	EmployeeID uuid.UUID
	Date       domain.CalendarDate
	Range      domain.DateRange
}

func ValidateQuery(in QueryInput) error {
	hasRange := !in.Range.From.IsZero() || !in.Range.To.IsZero()
	if hasRange && !in.Date.IsZero() {
		return service.Invalid("date", "use either date or start_date/end_date")
	}
	if hasRange && !in.Range.Valid() {
		return service.Invalid("date_range", "start_date and end_date are required and must be ordered")
	}
	return nil
}

// Query lists windows ordered by date and start time.
func (s *Service) Query(ctx context.Context, in QueryInput) ([]domain.AvailabilityWindow, error) {
	if err := ValidateQuery(in); err != nil {
		return nil, err
	}

	f := store.Filter{}
	if in.EmployeeID != uuid.Nil {
		f = f.Eq(store.FieldEmployeeID, in.EmployeeID)
	}
	if !in.Date.IsZero() {
		f = f.Eq(store.FieldDate, in.Date)
	}
	if in.Range.Valid() {
		f = f.Where(store.FieldDate, store.OpGte, in.Range.From).
			Where(store.FieldDate, store.OpLte, in.Range.To)
	}
	return s.repo.List(ctx, store.Query{
		Filter: f,
		Order:  store.Asc(store.FieldDate, store.FieldStartTime),
	})
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.AvailabilityWindow{}, notFound(err)
	}
	return w, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return service.NotFound("availability window")
	}
	return err
}

func (s *Service) changed(ctx context.Context, employeeID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.ScheduleChanged(ctx, employeeID)
	}
}
