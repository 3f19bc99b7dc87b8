package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

// Scheduler serializes check-then-write sequences per employee and date
// with transaction-scoped advisory locks.
type Scheduler struct {
	db *bun.DB
}

func NewScheduler(db *bun.DB) *Scheduler {
	return &Scheduler{db: db}
}

type schedulingTx struct {
	tx bun.Tx
}

func (s *Scheduler) InEmployeeDayTransaction(ctx context.Context, keys []store.DayKey, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, k := range store.SortedDayKeys(keys) {
			if err := lockEmployeeDay(ctx, tx, k); err != nil {
				return err
			}
		}
		return fn(ctx, schedulingTx{tx: tx})
	})
}

func lockEmployeeDay(ctx context.Context, tx bun.Tx, key store.DayKey) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key.String()).Exec(ctx)
	return err
}

func (t schedulingTx) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var svc domain.Service
	err := t.tx.NewSelect().
		Model(&svc).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	return svc, nil
}

func (t schedulingTx) GetWindow(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error) {
	var w domain.AvailabilityWindow
	err := t.tx.NewSelect().
		Model(&w).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.AvailabilityWindow{}, mapError(err)
	}
	return w, nil
}

func (t schedulingTx) ListWindows(ctx context.Context, employeeID uuid.UUID, date domain.CalendarDate) ([]domain.AvailabilityWindow, error) {
	var rows []domain.AvailabilityWindow
	err := t.tx.NewSelect().
		Model(&rows).
		Where("employee_id = ?", employeeID).
		Where("date = ?", date).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (t schedulingTx) InsertWindows(ctx context.Context, windows []domain.AvailabilityWindow) ([]domain.AvailabilityWindow, error) {
	if len(windows) == 0 {
		return nil, nil
	}
	rows := make([]domain.AvailabilityWindow, len(windows))
	copy(rows, windows)
	if _, err := t.tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return nil, mapInsertError(err)
	}
	return rows, nil
}

func (t schedulingTx) UpdateWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error) {
	res, err := t.tx.NewUpdate().
		Model(&w).
		Column("employee_id", "date", "start_time", "end_time", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.AvailabilityWindow{}, mapError(err)
	}
	if err := ensureAffected(res); err != nil {
		return domain.AvailabilityWindow{}, err
	}
	return w, nil
}

func (t schedulingTx) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.AvailabilityWindow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return ensureAffected(res)
}

func (t schedulingTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := t.tx.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return appt, nil
}

func (t schedulingTx) ListAppointments(ctx context.Context, employeeID uuid.UUID, date domain.CalendarDate) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := t.tx.NewSelect().
		Model(&rows).
		Where("employee_id = ?", employeeID).
		Where("date = ?", date).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (t schedulingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	m.Status = domain.StatusPending
	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, mapInsertError(err)
	}
	return m, nil
}

func (t schedulingTx) SetAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	var appt domain.Appointment
	res, err := t.tx.NewUpdate().
		Model(&appt).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	if err := ensureAffected(res); err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}
