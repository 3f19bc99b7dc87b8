package store

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
)

// DayKey identifies one employee's schedule on one date. Every
// check-then-write on availability or appointments holds the keys it touches.
type DayKey struct {
	EmployeeID uuid.UUID
	Date       domain.CalendarDate
}

func (k DayKey) String() string {
	return "employee:" + k.EmployeeID.String() + ":" + k.Date.String()
}

// SortedDayKeys returns the distinct keys in lock order.
func SortedDayKeys(keys []DayKey) []DayKey {
	seen := make(map[DayKey]struct{}, len(keys))
	out := make([]DayKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// SchedulingTx is the view of the store available inside a locked
// scheduling transaction.
type SchedulingTx interface {
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)

	GetWindow(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error)
	ListWindows(ctx context.Context, employeeID uuid.UUID, date domain.CalendarDate) ([]domain.AvailabilityWindow, error)
	InsertWindows(ctx context.Context, windows []domain.AvailabilityWindow) ([]domain.AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id uuid.UUID) error

	// GetAppointment reads the appointment for update.
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListAppointments(ctx context.Context, employeeID uuid.UUID, date domain.CalendarDate) ([]domain.Appointment, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
}

type Scheduler interface {
	// InEmployeeDayTransaction runs fn in one transaction holding an
	// exclusive lock on every key. Locks are released on commit or rollback.
	InEmployeeDayTransaction(ctx context.Context, keys []DayKey, fn func(ctx context.Context, tx SchedulingTx) error) error
}

// FindCoveringWindows returns the employee's windows fully containing interval.
func FindCoveringWindows(ctx context.Context, tx SchedulingTx, employeeID uuid.UUID, interval domain.TimeInterval) ([]domain.AvailabilityWindow, error) {
	windows, err := tx.ListWindows(ctx, employeeID, interval.Date)
	if err != nil {
		return nil, err
	}
	return domain.CoveringWindows(windows, interval), nil
}

// FindOverlappingWindows returns the employee's windows that conflict with
// interval, ignoring excludeID.
func FindOverlappingWindows(ctx context.Context, tx SchedulingTx, employeeID uuid.UUID, interval domain.TimeInterval, rule domain.OverlapRule, excludeID uuid.UUID) ([]domain.AvailabilityWindow, error) {
	windows, err := tx.ListWindows(ctx, employeeID, interval.Date)
	if err != nil {
		return nil, err
	}
	return domain.OverlappingWindows(windows, interval, rule, excludeID), nil
}

// FindOverlappingAppointments returns the employee's appointments that
// overlap interval, skipping the excluded statuses.
func FindOverlappingAppointments(ctx context.Context, tx SchedulingTx, employeeID uuid.UUID, interval domain.TimeInterval, rule domain.OverlapRule, exclude []domain.AppointmentStatus) ([]domain.Appointment, error) {
	appts, err := tx.ListAppointments(ctx, employeeID, interval.Date)
	if err != nil {
		return nil, err
	}
	return domain.OverlappingAppointments(appts, interval, rule, exclude), nil
}
