package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/store"
)

type Service struct {
	repo store.UserRepository
}

func NewService(repo store.UserRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := s.repo.Get(ctx, id)
	return u, notFound(err)
}

// RegisterInput describes a new user. ID is optional; a nil ID gets a
// generated one.
type RegisterInput struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Role      domain.Role
}

// Register stores a user record. Credentials are managed elsewhere.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := strings.TrimSpace(in.Email)
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return domain.User{}, service.Invalid("first_name", "is required")
	case !strings.Contains(email, "@"):
		return domain.User{}, service.Invalid("email", "is invalid")
	case !in.Role.Valid():
		return domain.User{}, service.Invalid("role", "is invalid")
	}
	return s.repo.Create(ctx, domain.User{
		ID:        in.ID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Role:      in.Role,
	})
}

// SetRole changes a user's role, e.g. promoting a client to employee.
func (s *Service) SetRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.Role) (domain.User, error) {
	if !actor.IsAdmin() {
		return domain.User{}, service.ErrForbidden
	}
	if id == uuid.Nil {
		return domain.User{}, service.Invalid("id", "is required")
	}
	if !role.Valid() {
		return domain.User{}, service.Invalid("role", "is invalid")
	}
	u, err := s.repo.SetRole(ctx, id, role)
	return u, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return service.NotFound("user")
	}
	return err
}
