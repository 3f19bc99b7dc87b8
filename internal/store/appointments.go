package store

import (
	"context"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
)

// AppointmentFields are the fields appointment queries may filter on.
var AppointmentFields = []Field{FieldID, FieldEmployeeID, FieldClientID, FieldServiceID, FieldDate, FieldStartTime, FieldStatus}

type AppointmentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, q Query) ([]domain.Appointment, error)
	// ListCalendar returns the employee's pending and confirmed appointments
	// in r joined with their service and client, ordered by date and start.
	ListCalendar(ctx context.Context, employeeID uuid.UUID, r domain.DateRange) ([]CalendarEntry, error)
	// ListClientHistory returns the client's non-cancelled appointments
	// joined with their service and employee, newest first.
	ListClientHistory(ctx context.Context, clientID uuid.UUID) ([]ClientEntry, error)
}

// CalendarEntry is an appointment joined with the service and client
// details a calendar needs.
type CalendarEntry struct {
	Appointment     domain.Appointment
	ServiceName     string
	ClientFirstName string
	ClientLastName  string
}

// ClientEntry is an appointment as its client sees it.
type ClientEntry struct {
	Appointment       domain.Appointment
	ServiceName       string
	EmployeeFirstName string
	EmployeeLastName  string
}
