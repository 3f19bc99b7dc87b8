package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

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
)

type SchedulingServer struct {
	appointments appointmentsService
	availability availabilityService
	calendar     calendarService
	log          *slog.Logger
}

type appointmentsService interface {
	Book(ctx context.Context, in appointments.BookInput) (domain.Appointment, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error)
}

type availabilityService interface {
	CreateBatch(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, slots []availability.Slot) ([]domain.AvailabilityWindow, error)
}

type calendarService interface {
	Range(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, r domain.DateRange) ([]calendar.Entry, error)
}

func NewSchedulingServer(appts appointmentsService, avail availabilityService, cal calendarService, log *slog.Logger) *SchedulingServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulingServer{
		appointments: appts,
		availability: avail,
		calendar:     cal,
		log:          log.With(slog.String("component", "grpc.scheduling")),
	}
}

func (s *SchedulingServer) BookAppointment(ctx context.Context, req *BookAppointmentRequest) (*BookAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "BookAppointment"))

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := appointments.BookInput{Actor: actor, IdempotencyKey: idempotencyKey(ctx)}
	if in.EmployeeID, err = uuid.Parse(req.EmployeeID); err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "employee_id must be a UUID")
	}
	if in.ServiceID, err = uuid.Parse(req.ServiceID); err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "service_id must be a UUID")
	}
	if in.Date, err = domain.ParseCalendarDate(req.Date); err != nil {
		return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
	}
	if in.Start, err = domain.ParseTimeOfDay(req.StartTime); err != nil {
		return nil, status.Error(codes.InvalidArgument, "start_time must be HH:MM")
	}
	if err := appointments.ValidateBook(in); err != nil {
		return nil, s.toStatus(log, err)
	}

	appt, err := s.appointments.Book(ctx, in)
	if err != nil {
		return nil, s.toStatus(log, err)
	}

	log.Info(
		"appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("employee_id", appt.EmployeeID.String()),
		slog.String("interval", appt.Interval().String()),
	)
	return &BookAppointmentResponse{Appointment: toAppointment(appt)}, nil
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func (s *SchedulingServer) UpdateAppointmentStatus(ctx context.Context, req *UpdateAppointmentStatusRequest) (*UpdateAppointmentStatusResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateAppointmentStatus"))

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "appointment_id must be a UUID")
	}
	to, err := domain.ParseAppointmentStatus(req.Status)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_status"), slog.String("status", req.Status))
		return nil, status.Error(codes.InvalidArgument, "status must be one of pending, confirmed, cancelled, completed")
	}

	appt, err := s.appointments.UpdateStatus(ctx, actor, id, to)
	if err != nil {
		return nil, s.toStatus(log.With(slog.String("appointment_id", id.String())), err)
	}

	log.Info("appointment status changed", slog.String("appointment_id", id.String()), slog.String("status", string(appt.Status)))
	return &UpdateAppointmentStatusResponse{Appointment: toAppointment(appt)}, nil
}

func (s *SchedulingServer) PublishAvailability(ctx context.Context, req *PublishAvailabilityRequest) (*PublishAvailabilityResponse, error) {
	log := s.log.With(slog.String("rpc", "PublishAvailability"))

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil || len(req.Slots) == 0 {
		log.Warn("invalid request", slog.String("reason", "no_slots"))
		return nil, status.Error(codes.InvalidArgument, "at least one slot is required")
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "employee_id must be a UUID")
	}

	slots := make([]availability.Slot, 0, len(req.Slots))
	for _, raw := range req.Slots {
		slot, err := parseSlot(raw)
		if err != nil {
			log.Warn("invalid request", slog.Any("err", err))
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		slots = append(slots, slot)
	}

	windows, err := s.availability.CreateBatch(ctx, actor, employeeID, slots)
	if err != nil {
		return nil, s.toStatus(log.With(slog.String("employee_id", employeeID.String())), err)
	}

	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		out = append(out, toWindow(w))
	}
	log.Info("availability published", slog.String("employee_id", employeeID.String()), slog.Int("count", len(out)))
	return &PublishAvailabilityResponse{Windows: out}, nil
}

func parseSlot(raw Slot) (availability.Slot, error) {
	date, err := domain.ParseCalendarDate(raw.Date)
	if err != nil {
		return availability.Slot{}, service.Invalid("date", "must be YYYY-MM-DD")
	}
	start, err := domain.ParseTimeOfDay(raw.StartTime)
	if err != nil {
		return availability.Slot{}, service.Invalid("start_time", "must be HH:MM")
	}
	end, err := domain.ParseTimeOfDay(raw.EndTime)
	if err != nil {
		return availability.Slot{}, service.Invalid("end_time", "must be HH:MM")
	}
	slot := availability.Slot{Date: date, Start: start, End: end}
	return slot, availability.ValidateSlot(slot)
}

func (s *SchedulingServer) ListEmployeeCalendar(ctx context.Context, req *ListEmployeeCalendarRequest) (*ListEmployeeCalendarResponse, error) {
	log := s.log.With(slog.String("rpc", "ListEmployeeCalendar"))

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "employee_id must be a UUID")
	}
	var r domain.DateRange
	if r.From, err = domain.ParseCalendarDate(req.StartDate); err != nil {
		return nil, status.Error(codes.InvalidArgument, "start_date must be YYYY-MM-DD")
	}
	if r.To, err = domain.ParseCalendarDate(req.EndDate); err != nil {
		return nil, status.Error(codes.InvalidArgument, "end_date must be YYYY-MM-DD")
	}

	entries, err := s.calendar.Range(ctx, actor, employeeID, r)
	if err != nil {
		return nil, s.toStatus(log.With(slog.String("employee_id", employeeID.String())), err)
	}
	if entries == nil {
		entries = []calendar.Entry{}
	}

	log.Debug("calendar listed", slog.String("employee_id", employeeID.String()), slog.Int("count", len(entries)))
	return &ListEmployeeCalendarResponse{Entries: entries}, nil
}

// toStatus maps a use-case error onto a gRPC status and logs it at the
// level its kind deserves.
func (s *SchedulingServer) toStatus(log *slog.Logger, err error) error {
	switch service.KindOf(err) {
	case service.KindValidation:
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, err.Error())
	case service.KindConflict:
		log.Info("request rejected", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case service.KindTerminalState:
		log.Info("request rejected", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case service.KindForbidden:
		log.Info("request forbidden")
		return status.Error(codes.PermissionDenied, "not allowed")
	case service.KindNotFound:
		log.Info("not found", slog.Any("err", err))
		return status.Error(codes.NotFound, err.Error())
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("request timed out", slog.Any("err", err))
			return status.Error(codes.DeadlineExceeded, "deadline exceeded")
		}
		log.Error("request failed", slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}

func actorFrom(ctx context.Context) (domain.Actor, error) {
	actor, ok := auth.ActorFrom(ctx)
	if !ok {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "missing or invalid bearer token")
	}
	return actor, nil
}
