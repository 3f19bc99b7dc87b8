package memory

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

type fieldGetter func(store.Field) (any, bool)

func matches(f store.Filter, get fieldGetter) bool {
	for _, p := range f {
		v, ok := get(p.Field)
		if !ok {
			return false
		}
		if !matchPredicate(p, v) {
			return false
		}
	}
	return true
}

func matchPredicate(p store.Predicate, v any) bool {
	switch p.Op {
	case store.OpIn, store.OpNotIn:
		values, _ := p.Value.([]any)
		found := false
		for _, candidate := range values {
			if c, ok := compare(v, candidate); ok && c == 0 {
				found = true
				break
			}
		}
		return found == (p.Op == store.OpIn)
	}

	c, ok := compare(v, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case store.OpEq:
		return c == 0
	case store.OpNe:
		return c != 0
	case store.OpLt:
		return c < 0
	case store.OpLte:
		return c <= 0
	case store.OpGt:
		return c > 0
	case store.OpGte:
		return c >= 0
	default:
		return false
	}
}

// compare orders two field values of the same type. ok is false when the
// values are not comparable.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.String(), bv.String()), true
	case domain.CalendarDate:
		bv, ok := b.(domain.CalendarDate)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case domain.TimeOfDay:
		bv, ok := b.(domain.TimeOfDay)
		if !ok {
			return 0, false
		}
		return int(av) - int(bv), true
	case domain.AppointmentStatus:
		switch bv := b.(type) {
		case domain.AppointmentStatus:
			return strings.Compare(string(av), string(bv)), true
		case string:
			return strings.Compare(string(av), bv), true
		}
	}
	return 0, false
}

func sortBy[T any](rows []T, order []store.Sort, get func(T) fieldGetter) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		gi, gj := get(rows[i]), get(rows[j])
		for _, s := range order {
			vi, _ := gi(s.Field)
			vj, _ := gj(s.Field)
			c, ok := compare(vi, vj)
			if !ok || c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func appointmentFields(a domain.Appointment) fieldGetter {
	return func(f store.Field) (any, bool) {
		switch f {
		case store.FieldID:
			return a.ID, true
		case store.FieldEmployeeID:
			return a.EmployeeID, true
		case store.FieldClientID:
			return a.ClientID, true
		case store.FieldServiceID:
			return a.ServiceID, true
		case store.FieldDate:
			return a.Date, true
		case store.FieldStartTime:
			return a.StartTime, true
		case store.FieldStatus:
			return a.Status, true
		}
		return nil, false
	}
}

func windowFields(w domain.AvailabilityWindow) fieldGetter {
	return func(f store.Field) (any, bool) {
		switch f {
		case store.FieldID:
			return w.ID, true
		case store.FieldEmployeeID:
			return w.EmployeeID, true
		case store.FieldDate:
			return w.Date, true
		case store.FieldStartTime:
			return w.StartTime, true
		}
		return nil, false
	}
}
