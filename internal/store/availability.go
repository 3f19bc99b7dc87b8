package store

import (
	"context"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
)

// AvailabilityFields are the fields availability queries may filter on.
var AvailabilityFields = []Field{FieldID, FieldEmployeeID, FieldDate, FieldStartTime}

type AvailabilityRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error)
	List(ctx context.Context, q Query) ([]domain.AvailabilityWindow, error)
}
