package grpc

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"salonbook/backend/internal/auth"
	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/appointments"
	"salonbook/backend/internal/service/availability"
	"salonbook/backend/internal/service/calendar"
	"salonbook/backend/internal/store"
)

type fakeAppointmentsService struct {
	bookFn         func(ctx context.Context, in appointments.BookInput) (domain.Appointment, error)
	updateStatusFn func(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error)
}

func (f *fakeAppointmentsService) Book(ctx context.Context, in appointments.BookInput) (domain.Appointment, error) {
	if f.bookFn == nil {
		panic("Book not configured")
	}
	return f.bookFn(ctx, in)
}

func (f *fakeAppointmentsService) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error) {
	if f.updateStatusFn == nil {
		panic("UpdateStatus not configured")
	}
	return f.updateStatusFn(ctx, actor, id, to)
}

type fakeAvailabilityService struct {
	createBatchFn func(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, slots []availability.Slot) ([]domain.AvailabilityWindow, error)
}

func (f *fakeAvailabilityService) CreateBatch(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, slots []availability.Slot) ([]domain.AvailabilityWindow, error) {
	if f.createBatchFn == nil {
		panic("CreateBatch not configured")
	}
	return f.createBatchFn(ctx, actor, employeeID, slots)
}

type fakeCalendarService struct {
	rangeFn func(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, r domain.DateRange) ([]calendar.Entry, error)
}

func (f *fakeCalendarService) Range(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, r domain.DateRange) ([]calendar.Entry, error) {
	if f.rangeFn == nil {
		panic("Range not configured")
	}
	return f.rangeFn(ctx, actor, employeeID, r)
}

var testActor = domain.Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Role: domain.RoleClient}

func authed() context.Context {
	return auth.WithActor(context.Background(), testActor)
}

func validBooking() *BookAppointmentRequest {
	return &BookAppointmentRequest{
		EmployeeID: "00000000-0000-0000-0000-000000000002",
		ServiceID:  "00000000-0000-0000-0000-000000000003",
		Date:       "2024-06-03",
		StartTime:  "09:30",
	}
}

func newServer(appts *fakeAppointmentsService) *SchedulingServer {
	return NewSchedulingServer(appts, &fakeAvailabilityService{}, &fakeCalendarService{}, slog.Default())
}

func TestIdempotencyKey_ReadsHeadersAndTrims(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "  abc  "))
	if got := idempotencyKey(ctx); got != "abc" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "abc")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-idempotency-key", "xyz"))
	if got := idempotencyKey(ctx); got != "xyz" {
		t.Fatalf("idempotencyKey = %q, want %q", got, "xyz")
	}
}

func TestBookAppointment_RequiresActor(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	_, err := srv.BookAppointment(context.Background(), validBooking())
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Unauthenticated)
	}
}

func TestBookAppointment_RejectsMalformedFields(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	for _, mutate := range []func(*BookAppointmentRequest){
		func(r *BookAppointmentRequest) { r.EmployeeID = "nope" },
		func(r *BookAppointmentRequest) { r.ServiceID = "" },
		func(r *BookAppointmentRequest) { r.Date = "2024-13-01" },
		func(r *BookAppointmentRequest) { r.StartTime = "9h" },
	} {
		req := validBooking()
		mutate(req)
		_, err := srv.BookAppointment(authed(), req)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("code = %s, want %s for %+v", status.Code(err), codes.InvalidArgument, req)
		}
	}
}

func TestBookAppointment_PassesActorAndIdempotencyKey(t *testing.T) {
	var got appointments.BookInput
	srv := newServer(&fakeAppointmentsService{
		bookFn: func(ctx context.Context, in appointments.BookInput) (domain.Appointment, error) {
			got = in
			return domain.Appointment{
				ID:              uuid.MustParse("00000000-0000-0000-0000-000000000010"),
				Date:            in.Date,
				StartTime:       in.Start,
				DurationMinutes: 45,
				Status:          domain.StatusPending,
			}, nil
		},
	})

	ctx := metadata.NewIncomingContext(authed(), metadata.Pairs("idempotency-key", "k1"))
	resp, err := srv.BookAppointment(ctx, validBooking())
	if err != nil {
		t.Fatalf("BookAppointment error: %v", err)
	}
	if got.IdempotencyKey != "k1" {
		t.Fatalf("idempotency_key = %q, want %q", got.IdempotencyKey, "k1")
	}
	if got.Actor != testActor {
		t.Fatalf("actor = %+v, want %+v", got.Actor, testActor)
	}
	if resp.Appointment.EndTime != "10:15" {
		t.Fatalf("end_time = %q, want %q", resp.Appointment.EndTime, "10:15")
	}
}

func TestBookAppointment_MapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "conflict", err: &service.ConflictError{Reason: "OVERLAP"}, want: codes.FailedPrecondition},
		{name: "idempotency", err: store.ErrIdempotencyConflict, want: codes.FailedPrecondition},
		{name: "validation", err: service.Invalid("date", "bad"), want: codes.InvalidArgument},
		{name: "not found", err: service.NotFound("service"), want: codes.NotFound},
		{name: "forbidden", err: service.ErrForbidden, want: codes.PermissionDenied},
		{name: "terminal", err: service.ErrTerminalState, want: codes.FailedPrecondition},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "upstream", err: errIntentional, want: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(&fakeAppointmentsService{
				bookFn: func(ctx context.Context, in appointments.BookInput) (domain.Appointment, error) {
					return domain.Appointment{}, tt.err
				},
			})
			_, err := srv.BookAppointment(authed(), validBooking())
			if status.Code(err) != tt.want {
				t.Fatalf("code = %s, want %s", status.Code(err), tt.want)
			}
		})
	}
}

func TestUpdateAppointmentStatus_RejectsUnknownStatus(t *testing.T) {
	srv := newServer(&fakeAppointmentsService{})

	_, err := srv.UpdateAppointmentStatus(authed(), &UpdateAppointmentStatusRequest{
		AppointmentID: "00000000-0000-0000-0000-000000000010",
		Status:        "archived",
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestPublishAvailability_ValidatesSlots(t *testing.T) {
	srv := NewSchedulingServer(&fakeAppointmentsService{}, &fakeAvailabilityService{}, &fakeCalendarService{}, slog.Default())

	_, err := srv.PublishAvailability(authed(), &PublishAvailabilityRequest{
		EmployeeID: "00000000-0000-0000-0000-000000000002",
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}

	_, err = srv.PublishAvailability(authed(), &PublishAvailabilityRequest{
		EmployeeID: "00000000-0000-0000-0000-000000000002",
		Slots:      []Slot{{Date: "2024-06-03", StartTime: "09:00", EndTime: "25:00"}},
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}
