package catalog

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
	repo     store.ServiceRepository
	notifier service.ChangeNotifier
}

type Option func(*Service)

// WithChangeNotifier is told about every employee whose calendar shows a
// service that was just edited.
func WithChangeNotifier(n service.ChangeNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(repo store.ServiceRepository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Input struct {
	Name            string
	DurationMinutes int
	Description     string
	Price           int64
}

func Validate(in Input) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return service.Invalid("name", "is required")
	case in.DurationMinutes < 1:
		return service.Invalid("duration", "must be at least 1 minute")
	case in.DurationMinutes > domain.MinutesPerDay:
		return service.Invalid("duration", "must fit in one day")
	case in.Price < 0:
		return service.Invalid("price", "must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, in Input) (domain.Service, error) {
	if !actor.IsAdmin() {
		return domain.Service{}, service.ErrForbidden
	}
	if err := Validate(in); err != nil {
		return domain.Service{}, err
	}
	return s.repo.Create(ctx, domain.Service{
		Name:            strings.TrimSpace(in.Name),
		DurationMinutes: in.DurationMinutes,
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price,
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	return svc, notFound(err)
}

func (s *Service) List(ctx context.Context) ([]domain.Service, error) {
	return s.repo.List(ctx)
}

// Update edits a service. Existing appointments keep the duration they were
// booked with.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in Input) (domain.Service, error) {
	if !actor.IsAdmin() {
		return domain.Service{}, service.ErrForbidden
	}
	if err := Validate(in); err != nil {
		return domain.Service{}, err
	}
	svc, err := s.repo.Update(ctx, domain.Service{
		ID:              id,
		Name:            strings.TrimSpace(in.Name),
		DurationMinutes: in.DurationMinutes,
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price,
	})
	if err != nil {
		return domain.Service{}, notFound(err)
	}
	s.changed(ctx, id)
	return svc, nil
}

// Delete fails with a conflict while appointments reference the service.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return service.ErrForbidden
	}
	return notFound(s.repo.Delete(ctx, id))
}

func (s *Service) AssignEmployee(ctx context.Context, actor domain.Actor, serviceID, employeeID uuid.UUID) error {
	if !actor.IsAdmin() {
		return service.ErrForbidden
	}
	return notFound(s.repo.AssignEmployee(ctx, serviceID, employeeID))
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]domain.Service, error) {
	return s.repo.ListEmployeeServices(ctx, employeeID)
}

// changed invalidates calendars showing the service. A failed lookup leaves
// views stale until calendar.cache_ttl expires them.
func (s *Service) changed(ctx context.Context, serviceID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	employees, err := s.repo.BookedEmployees(ctx, serviceID)
	if err != nil {
		return
	}
	for _, id := range employees {
		s.notifier.ScheduleChanged(ctx, id)
	}
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return service.NotFound("service")
	}
	return err
}
