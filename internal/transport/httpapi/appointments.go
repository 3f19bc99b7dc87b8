package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/appointments"
)

type bookRequest struct {
	EmployeeID string `json:"employee_id"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

const headerIdempotencyKey = "Idempotency-Key"

func (s *Server) bookAppointment(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	in, err := parseBook(req)
	if err != nil {
		return s.fail(c, err)
	}
	in.Actor = actorOf(c)
	in.IdempotencyKey = strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if err := appointments.ValidateBook(in); err != nil {
		return s.fail(c, err)
	}

	appt, err := s.appointments.Book(c.Request().Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("employee_id", appt.EmployeeID.String()),
		slog.String("interval", appt.Interval().String()),
	)
	return ok(c, http.StatusCreated, toAppointment(appt))
}

func parseBook(req bookRequest) (appointments.BookInput, error) {
	employeeID, err := parseUUID("employee_id", req.EmployeeID)
	if err != nil {
		return appointments.BookInput{}, err
	}
	serviceID, err := parseUUID("service_id", req.ServiceID)
	if err != nil {
		return appointments.BookInput{}, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return appointments.BookInput{}, err
	}
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		return appointments.BookInput{}, err
	}
	return appointments.BookInput{
		EmployeeID: employeeID,
		ServiceID:  serviceID,
		Date:       date,
		Start:      start,
	}, nil
}

func (s *Server) getAppointment(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	appt, err := s.appointments.Get(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toAppointment(appt))
}

// listAppointments filters by client_id or employee_id. Without either it
// lists everything for admins and the caller's own bookings otherwise.
func (s *Server) listAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	actor := actorOf(c)

	var (
		appts []domain.Appointment
		err   error
	)
	switch {
	case c.QueryParam("client_id") != "":
		clientID, perr := parseUUID("client_id", c.QueryParam("client_id"))
		if perr != nil {
			return s.fail(c, perr)
		}
		return s.clientHistory(c, clientID)
	case c.QueryParam("employee_id") != "":
		employeeID, perr := parseUUID("employee_id", c.QueryParam("employee_id"))
		if perr != nil {
			return s.fail(c, perr)
		}
		appts, err = s.appointments.ListByEmployee(ctx, actor, employeeID)
	case actor.IsAdmin():
		appts, err = s.appointments.ListAll(ctx, actor)
	default:
		return s.clientHistory(c, actor.UserID)
	}
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toAppointments(appts))
}

func (s *Server) clientHistory(c echo.Context, clientID uuid.UUID) error {
	entries, err := s.appointments.ListByClient(c.Request().Context(), actorOf(c), clientID)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toHistory(entries))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateAppointmentStatus(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	to, err := domain.ParseAppointmentStatus(req.Status)
	if err != nil {
		return s.fail(c, service.Invalid("status", "must be one of pending, confirmed, cancelled, completed"))
	}

	appt, err := s.appointments.UpdateStatus(c.Request().Context(), actorOf(c), id, to)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("appointment status changed",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("status", string(appt.Status)),
	)
	return ok(c, http.StatusOK, toAppointment(appt))
}

func (s *Server) cancelAppointment(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	appt, err := s.appointments.Cancel(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("appointment cancelled", slog.String("appointment_id", appt.ID.String()))
	return ok(c, http.StatusOK, toAppointment(appt))
}
