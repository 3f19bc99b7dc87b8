package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

// Scheduler runs every scheduling transaction under the database write
// lock, which subsumes the per-employee-day locks.
type Scheduler struct {
	db *DB
}

func NewScheduler(db *DB) *Scheduler {
	return &Scheduler{db: db}
}

func (s *Scheduler) InEmployeeDayTransaction(ctx context.Context, keys []store.DayKey, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return s.db.write(ctx, func(d *dataset) error {
		return fn(ctx, &schedulingTx{data: d, db: s.db})
	})
}

type schedulingTx struct {
	data *dataset
	db   *DB
}

func (t *schedulingTx) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	svc, ok := t.data.services[id]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (t *schedulingTx) GetWindow(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error) {
	w, ok := t.data.windows[id]
	if !ok {
		return domain.AvailabilityWindow{}, store.ErrNotFound
	}
	return w, nil
}

func (t *schedulingTx) ListWindows(ctx context.Context, employeeID uuid.UUID, date domain.CalendarDate) ([]domain.AvailabilityWindow, error) {
	var out []domain.AvailabilityWindow
	for _, w := range t.data.windows {
		if w.EmployeeID == employeeID && w.Date == date {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (t *schedulingTx) InsertWindows(ctx context.Context, windows []domain.AvailabilityWindow) ([]domain.AvailabilityWindow, error) {
	now := t.db.now()
	out := make([]domain.AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		if _, ok := t.data.users[w.EmployeeID]; !ok {
			return nil, store.ErrNotFound
		}
		if t.startTaken(w, uuid.Nil) {
			return nil, store.ErrConflict
		}
		if w.ID == uuid.Nil {
			w.ID = newID()
		}
		if _, ok := t.data.windows[w.ID]; ok {
			return nil, store.ErrConflict
		}
		w.CreatedAt, w.UpdatedAt = now, now
		t.data.windows[w.ID] = w
		out = append(out, w)
	}
	return out, nil
}

func (t *schedulingTx) UpdateWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error) {
	current, ok := t.data.windows[w.ID]
	if !ok {
		return domain.AvailabilityWindow{}, store.ErrNotFound
	}
	if t.startTaken(w, w.ID) {
		return domain.AvailabilityWindow{}, store.ErrConflict
	}
	current.EmployeeID = w.EmployeeID
	current.Date, current.StartTime, current.EndTime = w.Date, w.StartTime, w.EndTime
	current.UpdatedAt = t.db.now()
	t.data.windows[w.ID] = current
	return current, nil
}

// startTaken enforces uniqueness of (employee, date, start).
func (t *schedulingTx) startTaken(w domain.AvailabilityWindow, self uuid.UUID) bool {
	for id, existing := range t.data.windows {
		if id == self {
			continue
		}
		if existing.EmployeeID == w.EmployeeID && existing.Date == w.Date && existing.StartTime == w.StartTime {
			return true
		}
	}
	return false
}

func (t *schedulingTx) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.data.windows[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.windows, id)
	return nil
}

func (t *schedulingTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	a, ok := t.data.appointments[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (t *schedulingTx) ListAppointments(ctx context.Context, employeeID uuid.UUID, date domain.CalendarDate) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range t.data.appointments {
		if a.EmployeeID == employeeID && a.Date == date {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (t *schedulingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if _, ok := t.data.users[appt.ClientID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if _, ok := t.data.users[appt.EmployeeID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if _, ok := t.data.services[appt.ServiceID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if appt.ID == uuid.Nil {
		appt.ID = newID()
	}
	if _, ok := t.data.appointments[appt.ID]; ok {
		return domain.Appointment{}, store.ErrConflict
	}
	now := t.db.now()
	appt.Status = domain.StatusPending
	appt.CreatedAt, appt.UpdatedAt = now, now
	t.data.appointments[appt.ID] = appt
	return appt, nil
}

func (t *schedulingTx) SetAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	a, ok := t.data.appointments[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = t.db.now()
	t.data.appointments[id] = a
	return a, nil
}
