package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Appointment stores the service duration as it was when the appointment was
// booked; later edits to the service do not move existing appointments.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	ClientID        uuid.UUID         `bun:"client_id,notnull,type:uuid"`
	EmployeeID      uuid.UUID         `bun:"employee_id,notnull,type:uuid"`
	ServiceID       uuid.UUID         `bun:"service_id,notnull,type:uuid"`
	Date            CalendarDate      `bun:"date,notnull,type:date"`
	StartTime       TimeOfDay         `bun:"start_time,notnull,type:time"`
	DurationMinutes int               `bun:"duration_minutes,notnull"`
	Status          AppointmentStatus `bun:"status,notnull"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`
}

func (a Appointment) EndTime() TimeOfDay {
	return a.StartTime.AddMinutes(a.DurationMinutes)
}

func (a Appointment) Interval() TimeInterval {
	return TimeInterval{Date: a.Date, Start: a.StartTime, End: a.EndTime()}
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = StatusPending
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
