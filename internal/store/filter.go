package store

import (
	"fmt"
)

// Field names a filterable column. The value doubles as the column name in
// SQL backends.
type Field string

const (
	FieldID         Field = "id"
	FieldEmployeeID Field = "employee_id"
	FieldClientID   Field = "client_id"
	FieldServiceID  Field = "service_id"
	FieldDate       Field = "date"
	FieldStartTime  Field = "start_time"
	FieldStatus     Field = "status"
)

type Op string

const (
	OpEq    Op = "="
	OpNe    Op = "<>"
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpIn    Op = "IN"
	OpNotIn Op = "NOT IN"
)

// Predicate is a single "field op value" condition. For OpIn and OpNotIn
// Value holds a []any.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
}

// Filter is a conjunction of predicates.
type Filter []Predicate

func (f Filter) Where(field Field, op Op, value any) Filter {
	return append(f, Predicate{Field: field, Op: op, Value: value})
}

func (f Filter) Eq(field Field, value any) Filter {
	return f.Where(field, OpEq, value)
}

func (f Filter) In(field Field, values ...any) Filter {
	return f.Where(field, OpIn, values)
}

func (f Filter) NotIn(field Field, values ...any) Filter {
	return f.Where(field, OpNotIn, values)
}

// Validate rejects predicates on fields outside allowed and unknown operators.
func (f Filter) Validate(allowed ...Field) error {
	for _, p := range f {
		if !containsField(allowed, p.Field) {
			return fmt.Errorf("filter: field %q not supported", p.Field)
		}
		switch p.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		case OpIn, OpNotIn:
			if _, ok := p.Value.([]any); !ok {
				return fmt.Errorf("filter: %s expects a list", p)
			}
		default:
			return fmt.Errorf("filter: operator %q not supported", p.Op)
		}
	}
	return nil
}

type Sort struct {
	Field Field
	Desc  bool
}

// Query is a filtered, ordered listing request.
type Query struct {
	Filter Filter
	Order  []Sort
}

func Asc(fields ...Field) []Sort {
	out := make([]Sort, 0, len(fields))
	for _, f := range fields {
		out = append(out, Sort{Field: f})
	}
	return out
}

func Desc(fields ...Field) []Sort {
	out := make([]Sort, 0, len(fields))
	for _, f := range fields {
		out = append(out, Sort{Field: f, Desc: true})
	}
	return out
}

func containsField(list []Field, f Field) bool {
	for _, v := range list {
		if v == f {
			return true
		}
	}
	return false
}
