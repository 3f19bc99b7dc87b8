package store

import (
	"context"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc domain.Service) (domain.Service, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	Update(ctx context.Context, svc domain.Service) (domain.Service, error)
	// Delete returns ErrReferenced while appointments still use the service.
	Delete(ctx context.Context, id uuid.UUID) error
	AssignEmployee(ctx context.Context, serviceID, employeeID uuid.UUID) error
	ListEmployeeServices(ctx context.Context, employeeID uuid.UUID) ([]domain.Service, error)
	// BookedEmployees returns the distinct employees holding pending or
	// confirmed appointments of the service.
	BookedEmployees(ctx context.Context, serviceID uuid.UUID) ([]uuid.UUID, error)
}

type UserRepository interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error)
}
