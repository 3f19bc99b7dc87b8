package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is an offering that can be booked, e.g. a haircut.
type Service struct {
	bun.BaseModel `bun:"table:services,alias:s"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	Description     string    `bun:"description"`
	Price           int64     `bun:"price,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && s.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.ID = id
	}
	return nil
}

// EmployeeService records that an employee offers a service.
type EmployeeService struct {
	bun.BaseModel `bun:"table:employee_services,alias:es"`

	EmployeeID uuid.UUID `bun:"employee_id,pk,type:uuid"`
	ServiceID  uuid.UUID `bun:"service_id,pk,type:uuid"`
}
