// Package calendar builds read-only range and week views of an employee's
// schedule.
package calendar

import (
	"context"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/appointments"
	"salonbook/backend/internal/store"
)

type ServiceRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Duration int       `json:"duration"`
}

type ClientRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Entry struct {
	AppointmentID uuid.UUID                `json:"appointment_id"`
	Date          domain.CalendarDate      `json:"date"`
	Start         domain.TimeOfDay         `json:"start_time"`
	End           domain.TimeOfDay         `json:"end_time"`
	Status        domain.AppointmentStatus `json:"status"`
	Service       ServiceRef               `json:"service"`
	Client        ClientRef                `json:"client"`
}

type Window struct {
	ID    uuid.UUID        `json:"id"`
	Start domain.TimeOfDay `json:"start_time"`
	End   domain.TimeOfDay `json:"end_time"`
}

type Day struct {
	Date    domain.CalendarDate `json:"date"`
	Windows []Window            `json:"windows"`
	Entries []Entry             `json:"entries"`
}

type Week struct {
	EmployeeID uuid.UUID           `json:"employee_id"`
	From       domain.CalendarDate `json:"from"`
	To         domain.CalendarDate `json:"to"`
	Days       []Day               `json:"days"`
}

// Cache stores views per employee. Get reports the employee's current
// cache generation even on a miss; Put stores under the generation the
// caller read, so a view loaded across a schedule change is never served.
type Cache interface {
	Get(ctx context.Context, employeeID uuid.UUID, key string, out any) (generation string, hit bool)
	Put(ctx context.Context, employeeID uuid.UUID, generation, key string, v any)
}

// Bookings lists the active appointments of an employee joined with the
// service and client they reference.
type Bookings interface {
	ListByEmployeeInRange(ctx context.Context, employeeID uuid.UUID, r domain.DateRange) ([]store.CalendarEntry, error)
}

type Projector struct {
	appointments Bookings
	availability store.AvailabilityRepository
	cache        Cache
}

func NewProjector(appts Bookings, avail store.AvailabilityRepository, cache Cache) *Projector {
	return &Projector{appointments: appts, availability: avail, cache: cache}
}

func authorize(actor domain.Actor, employeeID uuid.UUID) error {
	if employeeID == uuid.Nil {
		return service.Invalid("employee_id", "is required")
	}
	if !actor.ActsFor(employeeID) {
		return service.ErrForbidden
	}
	return nil
}

// Range returns the pending and confirmed appointments of the employee in
// r ordered by date and start time.
func (p *Projector) Range(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, r domain.DateRange) ([]Entry, error) {
	if err := authorize(actor, employeeID); err != nil {
		return nil, err
	}
	if err := appointments.ValidateRange(r); err != nil {
		return nil, err
	}

	key := "range:" + r.From.String() + ":" + r.To.String()
	var entries []Entry
	gen, hit := p.cached(ctx, employeeID, key, &entries)
	if hit {
		return entries, nil
	}

	entries, err := p.load(ctx, employeeID, r)
	if err != nil {
		return nil, err
	}
	p.remember(ctx, employeeID, gen, key, entries)
	return entries, nil
}

func (p *Projector) load(ctx context.Context, employeeID uuid.UUID, r domain.DateRange) ([]Entry, error) {
	rows, err := p.appointments.ListByEmployeeInRange(ctx, employeeID, r)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(row))
	}
	return entries, nil
}

func toEntry(row store.CalendarEntry) Entry {
	a := row.Appointment
	client := domain.User{FirstName: row.ClientFirstName, LastName: row.ClientLastName}
	return Entry{
		AppointmentID: a.ID,
		Date:          a.Date,
		Start:         a.StartTime,
		End:           a.EndTime(),
		Status:        a.Status,
		Service:       ServiceRef{ID: a.ServiceID, Name: row.ServiceName, Duration: a.DurationMinutes},
		Client:        ClientRef{ID: a.ClientID, Name: client.FullName()},
	}
}

// Week returns the Monday-based week containing date, one Day per date
// with its windows and appointments.
func (p *Projector) Week(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, date domain.CalendarDate) (Week, error) {
	if err := authorize(actor, employeeID); err != nil {
		return Week{}, err
	}
	if date.IsZero() {
		return Week{}, service.Invalid("date", "is required")
	}

	from := date.StartOfWeek()
	r := domain.DateRange{From: from, To: from.AddDays(6)}
	key := "week:" + from.String()

	var week Week
	gen, hit := p.cached(ctx, employeeID, key, &week)
	if hit {
		return week, nil
	}

	entries, err := p.load(ctx, employeeID, r)
	if err != nil {
		return Week{}, err
	}
	windows, err := p.availability.List(ctx, store.Query{
		Filter: store.Filter{}.
			Eq(store.FieldEmployeeID, employeeID).
			Where(store.FieldDate, store.OpGte, r.From).
			Where(store.FieldDate, store.OpLte, r.To),
		Order: store.Asc(store.FieldDate, store.FieldStartTime),
	})
	if err != nil {
		return Week{}, err
	}

	week = Week{EmployeeID: employeeID, From: r.From, To: r.To, Days: make([]Day, 7)}
	for i := range week.Days {
		week.Days[i] = Day{Date: from.AddDays(i), Windows: []Window{}, Entries: []Entry{}}
	}
	for _, w := range windows {
		i := dayIndex(from, w.Date)
		week.Days[i].Windows = append(week.Days[i].Windows, Window{ID: w.ID, Start: w.StartTime, End: w.EndTime})
	}
	for _, e := range entries {
		i := dayIndex(from, e.Date)
		week.Days[i].Entries = append(week.Days[i].Entries, e)
	}

	p.remember(ctx, employeeID, gen, key, week)
	return week, nil
}

func dayIndex(from, d domain.CalendarDate) int {
	return domain.DateRange{From: from, To: d}.Days() - 1
}

func (p *Projector) cached(ctx context.Context, employeeID uuid.UUID, key string, out any) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	return p.cache.Get(ctx, employeeID, key, out)
}

func (p *Projector) remember(ctx context.Context, employeeID uuid.UUID, gen, key string, v any) {
	if p.cache != nil {
		p.cache.Put(ctx, employeeID, gen, key, v)
	}
}
