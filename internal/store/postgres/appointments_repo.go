package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return appt, nil
}

func (r *AppointmentRepo) List(ctx context.Context, q store.Query) ([]domain.Appointment, error) {
	if err := q.Filter.Validate(store.AppointmentFields...); err != nil {
		return nil, err
	}
	var rows []domain.Appointment
	err := applyQuery(r.db.NewSelect().Model(&rows), q).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

type calendarRow struct {
	domain.Appointment `bun:",extend"`

	ServiceName     string `bun:"service_name"`
	ClientFirstName string `bun:"client_first_name"`
	ClientLastName  string `bun:"client_last_name"`
}

func (r *AppointmentRepo) ListCalendar(ctx context.Context, employeeID uuid.UUID, dr domain.DateRange) ([]store.CalendarEntry, error) {
	var rows []calendarRow
	err := r.db.NewSelect().
		Model(&rows).
		ColumnExpr("a.*").
		ColumnExpr("s.name AS service_name").
		ColumnExpr("u.first_name AS client_first_name").
		ColumnExpr("u.last_name AS client_last_name").
		Join("JOIN services AS s ON s.id = a.service_id").
		Join("JOIN users AS u ON u.id = a.client_id").
		Where("a.employee_id = ?", employeeID).
		Where("a.date >= ?", dr.From).
		Where("a.date <= ?", dr.To).
		Where("a.status IN (?)", bun.In(domain.ActiveStatuses())).
		OrderExpr("a.date ASC, a.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]store.CalendarEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.CalendarEntry{
			Appointment:     row.Appointment,
			ServiceName:     row.ServiceName,
			ClientFirstName: row.ClientFirstName,
			ClientLastName:  row.ClientLastName,
		})
	}
	return out, nil
}

type historyRow struct {
	domain.Appointment `bun:",extend"`

	ServiceName       string `bun:"service_name"`
	EmployeeFirstName string `bun:"employee_first_name"`
	EmployeeLastName  string `bun:"employee_last_name"`
}

func (r *AppointmentRepo) ListClientHistory(ctx context.Context, clientID uuid.UUID) ([]store.ClientEntry, error) {
	var rows []historyRow
	err := r.db.NewSelect().
		Model(&rows).
		ColumnExpr("a.*").
		ColumnExpr("s.name AS service_name").
		ColumnExpr("e.first_name AS employee_first_name").
		ColumnExpr("e.last_name AS employee_last_name").
		Join("JOIN services AS s ON s.id = a.service_id").
		Join("JOIN users AS e ON e.id = a.employee_id").
		Where("a.client_id = ?", clientID).
		Where("a.status <> ?", domain.StatusCancelled).
		OrderExpr("a.date DESC, a.start_time DESC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]store.ClientEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.ClientEntry{
			Appointment:       row.Appointment,
			ServiceName:       row.ServiceName,
			EmployeeFirstName: row.EmployeeFirstName,
			EmployeeLastName:  row.EmployeeLastName,
		})
	}
	return out, nil
}
