package calendar

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/appointments"
	"salonbook/backend/internal/service/availability"
	"salonbook/backend/internal/service/catalog"
	"salonbook/backend/internal/service/scheduling"
	"salonbook/backend/internal/store/memory"
)

type mapCache struct {
	data map[string][]byte
	gen  int
	hits int
}

func (c *mapCache) Get(ctx context.Context, employeeID uuid.UUID, key string, out any) (string, bool) {
	gen := strconv.Itoa(c.gen)
	b, ok := c.data[employeeID.String()+gen+key]
	if !ok {
		return gen, false
	}
	c.hits++
	return gen, json.Unmarshal(b, out) == nil
}

func (c *mapCache) Put(ctx context.Context, employeeID uuid.UUID, gen, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.data[employeeID.String()+gen+key] = b
}

func (c *mapCache) ScheduleChanged(ctx context.Context, employeeID uuid.UUID) {
	c.gen++
}

type env struct {
	projector *Projector
	appts     *appointments.Service
	avail     *availability.Service
	catalog   *catalog.Service
	cache     *mapCache
	client    domain.Actor
	employee  domain.Actor
	service   domain.Service
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	users := memory.NewUserRepo(db)

	client, err := users.Create(ctx, domain.User{FirstName: "Cleo", LastName: "Client", Email: "cleo@example.com"})
	require.NoError(t, err)
	employee, err := users.Create(ctx, domain.User{FirstName: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee})
	require.NoError(t, err)
	serviceRepo := memory.NewServiceRepo(db)
	svc, err := serviceRepo.Create(ctx, domain.Service{Name: "Colour", DurationMinutes: 90})
	require.NoError(t, err)

	cache := &mapCache{data: map[string][]byte{}}
	sched := memory.NewScheduler(db)
	resolver := scheduling.NewResolver(scheduling.DefaultRules(), nil)
	apptRepo := memory.NewAppointmentRepo(db)
	availRepo := memory.NewAvailabilityRepo(db)

	appts := appointments.NewService(sched, apptRepo, resolver, appointments.WithChangeNotifier(cache))
	return env{
		projector: NewProjector(appts, availRepo, cache),
		appts:     appts,
		avail:     availability.NewService(sched, availRepo, resolver, cache),
		catalog:   catalog.NewService(serviceRepo, catalog.WithChangeNotifier(cache)),
		cache:     cache,
		client:    domain.Actor{UserID: client.ID, Role: client.Role},
		employee:  domain.Actor{UserID: employee.ID, Role: employee.Role},
		service:   svc,
	}
}

func (e env) book(t *testing.T, date domain.CalendarDate, start domain.TimeOfDay) domain.Appointment {
	t.Helper()
	appt, err := e.appts.Book(context.Background(), appointments.BookInput{
		Actor: e.client, EmployeeID: e.employee.UserID, ServiceID: e.service.ID, Date: date, Start: start,
	})
	require.NoError(t, err)
	return appt
}

func TestRange_OrdersAndAnnotates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	saturday := domain.NewCalendarDate(2024, time.June, 1)
	monday := domain.NewCalendarDate(2024, time.June, 3)

	_, err := e.avail.CreateBatch(ctx, e.employee, e.employee.UserID, []availability.Slot{
		{Date: saturday, Start: 540, End: 1080},
		{Date: monday, Start: 540, End: 1080},
	})
	require.NoError(t, err)

	late := e.book(t, monday, domain.NewTimeOfDay(14, 0))
	early := e.book(t, saturday, domain.NewTimeOfDay(10, 0))
	cancelled := e.book(t, monday, domain.NewTimeOfDay(9, 0))
	_, err = e.appts.Cancel(ctx, e.client, cancelled.ID)
	require.NoError(t, err)

	entries, err := e.projector.Range(ctx, e.employee, e.employee.UserID, domain.DateRange{From: saturday, To: monday})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, early.ID, entries[0].AppointmentID)
	assert.Equal(t, late.ID, entries[1].AppointmentID)
	assert.Equal(t, "15:30", entries[1].End.String())
	assert.Equal(t, ServiceRef{ID: e.service.ID, Name: "Colour", Duration: 90}, entries[0].Service)
	assert.Equal(t, "Cleo Client", entries[0].Client.Name)

	again, err := e.projector.Range(ctx, e.employee, e.employee.UserID, domain.DateRange{From: saturday, To: monday})
	require.NoError(t, err)
	assert.Equal(t, entries, again)
	assert.Equal(t, 1, e.cache.hits)
}

func TestRange_Authorization(t *testing.T) {
	e := newEnv(t)
	d := domain.NewCalendarDate(2024, time.June, 1)

	_, err := e.projector.Range(context.Background(), e.client, e.employee.UserID, domain.DateRange{From: d, To: d})
	assert.ErrorIs(t, err, service.ErrForbidden)

	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err = e.projector.Range(context.Background(), admin, e.employee.UserID, domain.DateRange{From: d, To: d})
	assert.NoError(t, err)
}

func TestWeek_GroupsByDayAndInvalidatesOnWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	wednesday := domain.NewCalendarDate(2024, time.June, 5)

	_, err := e.avail.Create(ctx, e.employee, e.employee.UserID, availability.Slot{Date: wednesday, Start: 540, End: 720})
	require.NoError(t, err)
	e.book(t, wednesday, domain.NewTimeOfDay(9, 0))

	week, err := e.projector.Week(ctx, e.employee, e.employee.UserID, domain.NewCalendarDate(2024, time.June, 8))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", week.From.String())
	assert.Equal(t, "2024-06-09", week.To.String())
	require.Len(t, week.Days, 7)
	assert.Equal(t, wednesday, week.Days[2].Date)
	assert.Len(t, week.Days[2].Windows, 1)
	assert.Len(t, week.Days[2].Entries, 1)
	assert.Empty(t, week.Days[0].Entries)

	e.book(t, wednesday, domain.NewTimeOfDay(10, 30))

	week, err = e.projector.Week(ctx, e.employee, e.employee.UserID, wednesday)
	require.NoError(t, err)
	assert.Len(t, week.Days[2].Entries, 2, "booking must invalidate the cached week")
}

func TestRange_ServiceRenameInvalidatesCachedView(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := domain.NewCalendarDate(2024, time.June, 3)

	_, err := e.avail.Create(ctx, e.employee, e.employee.UserID, availability.Slot{Date: d, Start: 540, End: 720})
	require.NoError(t, err)
	e.book(t, d, domain.NewTimeOfDay(9, 0))

	r := domain.DateRange{From: d, To: d}
	entries, err := e.projector.Range(ctx, e.employee, e.employee.UserID, r)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Colour", entries[0].Service.Name)

	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err = e.catalog.Update(ctx, admin, e.service.ID, catalog.Input{Name: "Balayage", DurationMinutes: 120})
	require.NoError(t, err)

	entries, err = e.projector.Range(ctx, e.employee, e.employee.UserID, r)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Balayage", entries[0].Service.Name)
	assert.Equal(t, 90, entries[0].Service.Duration, "booked duration is kept")
}
