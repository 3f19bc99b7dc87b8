package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"salonbook/backend/internal/domain"
)

type ServiceRepo struct {
	db *bun.DB
}

func NewServiceRepo(db *bun.DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

func (r *ServiceRepo) Create(ctx context.Context, svc domain.Service) (domain.Service, error) {
	if _, err := r.db.NewInsert().Model(&svc).Exec(ctx); err != nil {
		return domain.Service{}, mapInsertError(err)
	}
	return svc, nil
}

func (r *ServiceRepo) Get(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	return svc, nil
}

func (r *ServiceRepo) List(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *ServiceRepo) Update(ctx context.Context, svc domain.Service) (domain.Service, error) {
	res, err := r.db.NewUpdate().
		Model(&svc).
		Column("name", "duration_minutes", "description", "price").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	if err := ensureAffected(res); err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *ServiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Service)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return ensureAffected(res)
}

func (r *ServiceRepo) AssignEmployee(ctx context.Context, serviceID, employeeID uuid.UUID) error {
	link := domain.EmployeeService{EmployeeID: employeeID, ServiceID: serviceID}
	_, err := r.db.NewInsert().
		Model(&link).
		On("CONFLICT (employee_id, service_id) DO NOTHING").
		Exec(ctx)
	return mapInsertError(err)
}

func (r *ServiceRepo) ListEmployeeServices(ctx context.Context, employeeID uuid.UUID) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Join("JOIN employee_services AS es ON es.service_id = s.id").
		Where("es.employee_id = ?", employeeID).
		OrderExpr("s.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *ServiceRepo) BookedEmployees(ctx context.Context, serviceID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		ColumnExpr("DISTINCT a.employee_id").
		Where("a.service_id = ?", serviceID).
		Where("a.status IN (?)", bun.In(domain.ActiveStatuses())).
		Scan(ctx, &ids)
	if err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if _, err := r.db.NewInsert().Model(&u).Exec(ctx); err != nil {
		return domain.User{}, mapInsertError(err)
	}
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error) {
	var u domain.User
	res, err := r.db.NewUpdate().
		Model(&u).
		Set("role = ?", role).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	if err := ensureAffected(res); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
