package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AvailabilityWindow is a published interval during which an employee can be booked.
type AvailabilityWindow struct {
	bun.BaseModel `bun:"table:availability,alias:w"`

	ID         uuid.UUID    `bun:"id,pk,type:uuid"`
	EmployeeID uuid.UUID    `bun:"employee_id,notnull,type:uuid"`
	Date       CalendarDate `bun:"date,notnull,type:date"`
	StartTime  TimeOfDay    `bun:"start_time,notnull,type:time"`
	EndTime    TimeOfDay    `bun:"end_time,notnull,type:time"`
	CreatedAt  time.Time    `bun:"created_at,notnull"`
	UpdatedAt  time.Time    `bun:"updated_at,notnull"`
}

func NewAvailabilityWindow(employeeID uuid.UUID, interval TimeInterval) AvailabilityWindow {
	return AvailabilityWindow{
		EmployeeID: employeeID,
		Date:       interval.Date,
		StartTime:  interval.Start,
		EndTime:    interval.End,
	}
}

func (w AvailabilityWindow) Interval() TimeInterval {
	return TimeInterval{Date: w.Date, Start: w.StartTime, End: w.EndTime}
}

func (w *AvailabilityWindow) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if w.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			w.ID = id
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.UpdatedAt.IsZero() {
			w.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		w.UpdatedAt = now
	}
	return nil
}

// CoveringWindows returns the windows that fully contain interval.
func CoveringWindows(windows []AvailabilityWindow, interval TimeInterval) []AvailabilityWindow {
	var out []AvailabilityWindow
	for _, w := range windows {
		if w.Interval().Covers(interval) {
			out = append(out, w)
		}
	}
	return out
}

// OverlappingWindows returns the windows overlapping interval under rule,
// ignoring the window whose id is excludeID.
func OverlappingWindows(windows []AvailabilityWindow, interval TimeInterval, rule OverlapRule, excludeID uuid.UUID) []AvailabilityWindow {
	var out []AvailabilityWindow
	for _, w := range windows {
		if excludeID != uuid.Nil && w.ID == excludeID {
			continue
		}
		// (employee, date, start) is unique, so an equal start always conflicts.
		sameStart := w.Date == interval.Date && w.StartTime == interval.Start
		if sameStart || w.Interval().Overlaps(interval, rule) {
			out = append(out, w)
		}
	}
	return out
}
