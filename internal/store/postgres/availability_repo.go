package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

type AvailabilityRepo struct {
	db *bun.DB
}

func NewAvailabilityRepo(db *bun.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

func (r *AvailabilityRepo) Get(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error) {
	var w domain.AvailabilityWindow
	err := r.db.NewSelect().
		Model(&w).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.AvailabilityWindow{}, mapError(err)
	}
	return w, nil
}

func (r *AvailabilityRepo) List(ctx context.Context, q store.Query) ([]domain.AvailabilityWindow, error) {
	if err := q.Filter.Validate(store.AvailabilityFields...); err != nil {
		return nil, err
	}
	var rows []domain.AvailabilityWindow
	err := applyQuery(r.db.NewSelect().Model(&rows), q).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}
