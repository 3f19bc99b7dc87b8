package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

type seeded struct {
	db       *DB
	client   domain.User
	employee domain.User
	service  domain.Service
	date     domain.CalendarDate
}

func seed(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	db := New()

	client, err := NewUserRepo(db).Create(ctx, domain.User{FirstName: "Cleo", LastName: "Client", Email: "cleo@example.com"})
	require.NoError(t, err)
	employee, err := NewUserRepo(db).Create(ctx, domain.User{FirstName: "Eve", LastName: "Stylist", Email: "eve@example.com", Role: domain.RoleEmployee})
	require.NoError(t, err)
	svc, err := NewServiceRepo(db).Create(ctx, domain.Service{Name: "Haircut", DurationMinutes: 30})
	require.NoError(t, err)

	return seeded{db: db, client: client, employee: employee, service: svc, date: domain.NewCalendarDate(2024, time.June, 1)}
}

func (s seeded) interval(t *testing.T, start, end domain.TimeOfDay) domain.TimeInterval {
	t.Helper()
	i, err := domain.NewTimeInterval(s.date, start, end)
	require.NoError(t, err)
	return i
}

func TestScheduler_RollsBackOnError(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	sched := NewScheduler(s.db)
	boom := errors.New("boom")

	err := sched.InEmployeeDayTransaction(ctx, nil, func(ctx context.Context, tx store.SchedulingTx) error {
		_, err := tx.InsertWindows(ctx, []domain.AvailabilityWindow{
			domain.NewAvailabilityWindow(s.employee.ID, s.interval(t, 540, 600)),
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	windows, err := NewAvailabilityRepo(s.db).List(ctx, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestScheduler_InsertWindowsEnforcesUniqueStart(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	sched := NewScheduler(s.db)

	err := sched.InEmployeeDayTransaction(ctx, nil, func(ctx context.Context, tx store.SchedulingTx) error {
		_, err := tx.InsertWindows(ctx, []domain.AvailabilityWindow{
			domain.NewAvailabilityWindow(s.employee.ID, s.interval(t, 540, 600)),
			domain.NewAvailabilityWindow(s.employee.ID, s.interval(t, 540, 570)),
		})
		return err
	})
	require.ErrorIs(t, err, store.ErrConflict)

	err = sched.InEmployeeDayTransaction(ctx, nil, func(ctx context.Context, tx store.SchedulingTx) error {
		_, err := tx.InsertWindows(ctx, []domain.AvailabilityWindow{
			domain.NewAvailabilityWindow(s.client.ID, s.interval(t, 540, 600)),
			domain.NewAvailabilityWindow(domain.User{}.ID, s.interval(t, 600, 660)),
		})
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAvailabilityRepo_ListFiltersAndOrders(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	next := s.date.AddDays(1)

	err := NewScheduler(s.db).InEmployeeDayTransaction(ctx, nil, func(ctx context.Context, tx store.SchedulingTx) error {
		late, _ := domain.NewTimeInterval(next, 600, 660)
		_, err := tx.InsertWindows(ctx, []domain.AvailabilityWindow{
			domain.NewAvailabilityWindow(s.employee.ID, late),
			domain.NewAvailabilityWindow(s.employee.ID, s.interval(t, 720, 780)),
			domain.NewAvailabilityWindow(s.employee.ID, s.interval(t, 540, 600)),
		})
		return err
	})
	require.NoError(t, err)

	repo := NewAvailabilityRepo(s.db)
	all, err := repo.List(ctx, store.Query{
		Filter: store.Filter{}.Eq(store.FieldEmployeeID, s.employee.ID),
		Order:  store.Asc(store.FieldDate, store.FieldStartTime),
	})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.TimeOfDay(540), all[0].StartTime)
	assert.Equal(t, domain.TimeOfDay(720), all[1].StartTime)
	assert.Equal(t, next, all[2].Date)

	oneDay, err := repo.List(ctx, store.Query{
		Filter: store.Filter{}.Eq(store.FieldEmployeeID, s.employee.ID).Eq(store.FieldDate, next),
	})
	require.NoError(t, err)
	require.Len(t, oneDay, 1)

	_, err = repo.List(ctx, store.Query{Filter: store.Filter{}.Eq(store.FieldStatus, domain.StatusPending)})
	require.Error(t, err)
}

func TestAppointmentRepo_ListCalendarJoinsAndSkipsTerminal(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	sched := NewScheduler(s.db)

	var first, second domain.Appointment
	err := sched.InEmployeeDayTransaction(ctx, nil, func(ctx context.Context, tx store.SchedulingTx) error {
		var err error
		second, err = tx.InsertAppointment(ctx, domain.Appointment{
			ClientID: s.client.ID, EmployeeID: s.employee.ID, ServiceID: s.service.ID,
			Date: s.date, StartTime: 600, DurationMinutes: 30,
		})
		if err != nil {
			return err
		}
		first, err = tx.InsertAppointment(ctx, domain.Appointment{
			ClientID: s.client.ID, EmployeeID: s.employee.ID, ServiceID: s.service.ID,
			Date: s.date, StartTime: 540, DurationMinutes: 30,
		})
		if err != nil {
			return err
		}
		cancelled, err := tx.InsertAppointment(ctx, domain.Appointment{
			ClientID: s.client.ID, EmployeeID: s.employee.ID, ServiceID: s.service.ID,
			Date: s.date, StartTime: 700, DurationMinutes: 30,
		})
		if err != nil {
			return err
		}
		_, err = tx.SetAppointmentStatus(ctx, cancelled.ID, domain.StatusCancelled)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, first.Status)

	entries, err := NewAppointmentRepo(s.db).ListCalendar(ctx, s.employee.ID, domain.DateRange{From: s.date, To: s.date})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].Appointment.ID)
	assert.Equal(t, second.ID, entries[1].Appointment.ID)
	assert.Equal(t, "Haircut", entries[0].ServiceName)
	assert.Equal(t, "Cleo", entries[0].ClientFirstName)

	newest, err := NewAppointmentRepo(s.db).List(ctx, store.Query{
		Filter: store.Filter{}.Eq(store.FieldClientID, s.client.ID).NotIn(store.FieldStatus, domain.StatusCancelled),
		Order:  store.Desc(store.FieldDate, store.FieldStartTime),
	})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, second.ID, newest[0].ID)

	err = NewServiceRepo(s.db).Delete(ctx, s.service.ID)
	assert.ErrorIs(t, err, store.ErrReferenced)
}

func TestUserRepo_UniqueEmailAndSetRole(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	users := NewUserRepo(s.db)

	_, err := users.Create(ctx, domain.User{FirstName: "Other", Email: " CLEO@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	u, err := users.SetRole(ctx, s.client.ID, domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, u.Role)

	_, err = users.SetRole(ctx, domain.User{}.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWrite_HonoursCancelledContext(t *testing.T) {
	s := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewServiceRepo(s.db).Create(ctx, domain.Service{Name: "Shave", DurationMinutes: 15})
	assert.ErrorIs(t, err, context.Canceled)
}
