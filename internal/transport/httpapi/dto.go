package httpapi

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/store"
)

type appointmentResponse struct {
	ID              uuid.UUID                `json:"id"`
	ClientID        uuid.UUID                `json:"client_id"`
	EmployeeID      uuid.UUID                `json:"employee_id"`
	ServiceID       uuid.UUID                `json:"service_id"`
	Date            domain.CalendarDate      `json:"date"`
	StartTime       domain.TimeOfDay         `json:"start_time"`
	EndTime         domain.TimeOfDay         `json:"end_time"`
	DurationMinutes int                      `json:"duration_minutes"`
	Status          domain.AppointmentStatus `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`

	ServiceName  string `json:"service_name,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`
}

func toAppointment(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		ClientID:        a.ClientID,
		EmployeeID:      a.EmployeeID,
		ServiceID:       a.ServiceID,
		Date:            a.Date,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime(),
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toAppointments(appts []domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointment(a))
	}
	return out
}

func toHistory(entries []store.ClientEntry) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(entries))
	for _, e := range entries {
		r := toAppointment(e.Appointment)
		r.ServiceName = e.ServiceName
		r.EmployeeName = domain.User{FirstName: e.EmployeeFirstName, LastName: e.EmployeeLastName}.FullName()
		out = append(out, r)
	}
	return out
}

type windowResponse struct {
	ID         uuid.UUID           `json:"id"`
	EmployeeID uuid.UUID           `json:"employee_id"`
	Date       domain.CalendarDate `json:"date"`
	StartTime  domain.TimeOfDay    `json:"start_time"`
	EndTime    domain.TimeOfDay    `json:"end_time"`
}

func toWindows(windows []domain.AvailabilityWindow) []windowResponse {
	out := make([]windowResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowResponse{
			ID:         w.ID,
			EmployeeID: w.EmployeeID,
			Date:       w.Date,
			StartTime:  w.StartTime,
			EndTime:    w.EndTime,
		})
	}
	return out
}

type serviceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration"`
	Description     string    `json:"description"`
	Price           int64     `json:"price"`
}

func toService(s domain.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Description:     s.Description,
		Price:           s.Price,
	}
}

func toServices(svcs []domain.Service) []serviceResponse {
	out := make([]serviceResponse, 0, len(svcs))
	for _, s := range svcs {
		out = append(out, toService(s))
	}
	return out
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

func toUser(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role.String(),
	}
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, service.Invalid(field, "must be a UUID")
	}
	return id, nil
}

func parseDate(field, raw string) (domain.CalendarDate, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.CalendarDate{}, service.Invalid(field, "is required")
	}
	d, err := domain.ParseCalendarDate(raw)
	if err != nil {
		return domain.CalendarDate{}, service.Invalid(field, "must be YYYY-MM-DD")
	}
	return d, nil
}

func parseOptionalDate(field, raw string) (domain.CalendarDate, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.CalendarDate{}, nil
	}
	return parseDate(field, raw)
}

func parseTime(field, raw string) (domain.TimeOfDay, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, service.Invalid(field, "is required")
	}
	t, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return 0, service.Invalid(field, "must be HH:MM")
	}
	return t, nil
}

type slotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
