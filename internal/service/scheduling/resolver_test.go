package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/store"
	"salonbook/backend/internal/store/memory"
)

type countingObserver struct {
	calls map[string]int
}

func (o *countingObserver) ObserveDecision(check string, outcome Outcome, reason Reason) {
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[check+":"+string(outcome)+":"+string(reason)]++
}

type harness struct {
	sched    *memory.Scheduler
	client   domain.User
	employee domain.User
	haircut  domain.Service
	date     domain.CalendarDate
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	users := memory.NewUserRepo(db)

	client, err := users.Create(ctx, domain.User{FirstName: "Cleo", Email: "cleo@example.com"})
	require.NoError(t, err)
	employee, err := users.Create(ctx, domain.User{FirstName: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee})
	require.NoError(t, err)
	haircut, err := memory.NewServiceRepo(db).Create(ctx, domain.Service{Name: "Haircut", DurationMinutes: 30})
	require.NoError(t, err)

	return harness{
		sched:    memory.NewScheduler(db),
		client:   client,
		employee: employee,
		haircut:  haircut,
		date:     domain.NewCalendarDate(2024, time.June, 1),
	}
}

func (h harness) tx(t *testing.T, fn func(ctx context.Context, tx store.SchedulingTx) error) {
	t.Helper()
	require.NoError(t, h.sched.InEmployeeDayTransaction(context.Background(), nil, fn))
}

func (h harness) publish(t *testing.T, start, end string) {
	t.Helper()
	s, err := domain.ParseTimeOfDay(start)
	require.NoError(t, err)
	e, err := domain.ParseTimeOfDay(end)
	require.NoError(t, err)
	interval, err := domain.NewTimeInterval(h.date, s, e)
	require.NoError(t, err)
	h.tx(t, func(ctx context.Context, tx store.SchedulingTx) error {
		_, err := tx.InsertWindows(ctx, []domain.AvailabilityWindow{domain.NewAvailabilityWindow(h.employee.ID, interval)})
		return err
	})
}

// book runs the booking check and inserts the appointment when admitted.
func (h harness) book(t *testing.T, r *Resolver, start string) (Decision, domain.Appointment) {
	t.Helper()
	s, err := domain.ParseTimeOfDay(start)
	require.NoError(t, err)

	var (
		d    Decision
		appt domain.Appointment
	)
	h.tx(t, func(ctx context.Context, tx store.SchedulingTx) error {
		var err error
		d, err = r.CanBookAppointment(ctx, tx, BookingRequest{EmployeeID: h.employee.ID, ServiceID: h.haircut.ID, Date: h.date, Start: s})
		if err != nil || !d.Admitted() {
			return err
		}
		appt, err = tx.InsertAppointment(ctx, domain.Appointment{
			ClientID:        h.client.ID,
			EmployeeID:      h.employee.ID,
			ServiceID:       h.haircut.ID,
			Date:            h.date,
			StartTime:       s,
			DurationMinutes: d.Service.DurationMinutes,
		})
		return err
	})
	return d, appt
}

func TestCanBookAppointment_OverlapAndWindowEnd(t *testing.T) {
	h := newHarness(t)
	obs := &countingObserver{}
	r := NewResolver(DefaultRules(), obs)
	h.publish(t, "09:00", "12:00")

	d, appt := h.book(t, r, "09:00")
	require.True(t, d.Admitted())
	assert.Equal(t, "09:30", d.End.String())
	assert.Equal(t, 30, appt.DurationMinutes)

	d, _ = h.book(t, r, "09:15")
	assert.Equal(t, Reject, d.Outcome)
	assert.Equal(t, ReasonOverlap, d.Reason)
	require.Len(t, d.Conflicts, 1)
	assert.Equal(t, "2024-06-01 09:00-09:30", d.Conflicts[0].String())

	d, _ = h.book(t, r, "11:45")
	assert.Equal(t, ReasonNotAvailable, d.Reason)
	assert.Equal(t, "12:15", d.End.String())

	d, _ = h.book(t, r, "11:30")
	assert.True(t, d.Admitted(), "slot ending exactly at window end is bookable")

	assert.Equal(t, 2, obs.calls["book_appointment:ADMIT:"])
	assert.Equal(t, 1, obs.calls["book_appointment:REJECT:OVERLAP"])
	assert.Equal(t, 1, obs.calls["book_appointment:REJECT:NOT_AVAILABLE"])
}

func TestCanBookAppointment_BackToBackFollowsRule(t *testing.T) {
	h := newHarness(t)
	h.publish(t, "09:00", "12:00")

	strict := NewResolver(DefaultRules(), nil)
	d, _ := h.book(t, strict, "09:00")
	require.True(t, d.Admitted())
	d, _ = h.book(t, strict, "09:30")
	assert.True(t, d.Admitted(), "strict rule lets appointments touch")

	inclusive := NewResolver(Rules{Appointments: domain.OverlapInclusive}, nil)
	d, _ = h.book(t, inclusive, "10:00")
	assert.Equal(t, ReasonOverlap, d.Reason, "inclusive rule rejects touching appointments")
}

func TestCanBookAppointment_CancelledFreesSlot(t *testing.T) {
	h := newHarness(t)
	r := NewResolver(DefaultRules(), nil)
	h.publish(t, "09:00", "12:00")

	d, appt := h.book(t, r, "09:00")
	require.True(t, d.Admitted())

	h.tx(t, func(ctx context.Context, tx store.SchedulingTx) error {
		_, err := tx.SetAppointmentStatus(ctx, appt.ID, domain.StatusCancelled)
		return err
	})

	d, _ = h.book(t, r, "09:00")
	assert.True(t, d.Admitted())
}

func TestCanBookAppointment_ServiceNotFoundAndMidnight(t *testing.T) {
	h := newHarness(t)
	r := NewResolver(DefaultRules(), nil)
	h.publish(t, "23:00", "24:00")

	h.tx(t, func(ctx context.Context, tx store.SchedulingTx) error {
		d, err := r.CanBookAppointment(ctx, tx, BookingRequest{EmployeeID: h.employee.ID, ServiceID: uuid.New(), Date: h.date, Start: 540})
		require.NoError(t, err)
		assert.Equal(t, ReasonServiceNotFound, d.Reason)
		assert.Equal(t, service.KindNotFound, service.KindOf(d.Err()))

		d, err = r.CanBookAppointment(ctx, tx, BookingRequest{EmployeeID: h.employee.ID, ServiceID: h.haircut.ID, Date: h.date, Start: domain.NewTimeOfDay(23, 30)})
		require.NoError(t, err)
		assert.True(t, d.Admitted(), "window ending at 24:00 covers 23:30-24:00")

		d, err = r.CanBookAppointment(ctx, tx, BookingRequest{EmployeeID: h.employee.ID, ServiceID: h.haircut.ID, Date: h.date, Start: domain.NewTimeOfDay(23, 45)})
		require.NoError(t, err)
		assert.Equal(t, ReasonNotAvailable, d.Reason)
		assert.Equal(t, service.KindConflict, service.KindOf(d.Err()))
		return nil
	})
}

func TestCanPublishAvailability_TouchingAndOverlappingWindows(t *testing.T) {
	h := newHarness(t)
	r := NewResolver(DefaultRules(), nil)
	h.publish(t, "09:00", "10:00")

	h.tx(t, func(ctx context.Context, tx store.SchedulingTx) error {
		d, err := r.CanPublishAvailability(ctx, tx, PublishRequest{EmployeeID: h.employee.ID, Date: h.date, Start: 600, End: 660})
		require.NoError(t, err)
		assert.True(t, d.Admitted(), "touching windows are allowed")

		d, err = r.CanPublishAvailability(ctx, tx, PublishRequest{EmployeeID: h.employee.ID, Date: h.date, Start: 570, End: 630})
		require.NoError(t, err)
		assert.Equal(t, ReasonOverlap, d.Reason)

		d, err = r.CanPublishAvailability(ctx, tx, PublishRequest{EmployeeID: h.employee.ID, Date: h.date, Start: 540, End: 550})
		require.NoError(t, err)
		assert.Equal(t, ReasonOverlap, d.Reason, "equal start always conflicts")

		d, err = r.CanPublishAvailability(ctx, tx, PublishRequest{EmployeeID: h.employee.ID, Date: h.date, Start: 660, End: 600})
		require.NoError(t, err)
		assert.Equal(t, ReasonInvalidRange, d.Reason)
		assert.Equal(t, service.KindValidation, service.KindOf(d.Err()))

		inclusive := NewResolver(Rules{Availability: domain.OverlapInclusive}, nil)
		d, err = inclusive.CanPublishAvailability(ctx, tx, PublishRequest{EmployeeID: h.employee.ID, Date: h.date, Start: 600, End: 660})
		require.NoError(t, err)
		assert.Equal(t, ReasonOverlap, d.Reason)
		return nil
	})
}

func TestCanPublishAvailability_ExcludesSelfOnUpdate(t *testing.T) {
	h := newHarness(t)
	r := NewResolver(DefaultRules(), nil)
	h.publish(t, "09:00", "10:00")

	h.tx(t, func(ctx context.Context, tx store.SchedulingTx) error {
		windows, err := tx.ListWindows(ctx, h.employee.ID, h.date)
		require.NoError(t, err)
		require.Len(t, windows, 1)

		d, err := r.CanPublishAvailability(ctx, tx, PublishRequest{
			EmployeeID: h.employee.ID, Date: h.date, Start: 540, End: 630, ExcludeID: windows[0].ID,
		})
		require.NoError(t, err)
		assert.True(t, d.Admitted())
		return nil
	})
}

func TestSiblings(t *testing.T) {
	r := NewResolver(DefaultRules(), nil)
	date := domain.NewCalendarDate(2024, 6, 1)

	ok := r.Siblings([]domain.TimeInterval{
		{Date: date, Start: 540, End: 600},
		{Date: date, Start: 600, End: 660},
		{Date: date.AddDays(1), Start: 540, End: 600},
	})
	assert.True(t, ok.Admitted())

	bad := r.Siblings([]domain.TimeInterval{
		{Date: date, Start: 540, End: 600},
		{Date: date, Start: 570, End: 630},
	})
	assert.Equal(t, ReasonOverlap, bad.Reason)
	assert.Equal(t, domain.TimeOfDay(570), bad.Interval.Start)
}
