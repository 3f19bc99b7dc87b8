package postgres

import (
	"github.com/uptrace/bun"

	"salonbook/backend/internal/store"
)

// applyQuery appends the filter and ordering of q to sel. Field names are
// column names, so they are quoted as identifiers and never interpolated.
func applyQuery(sel *bun.SelectQuery, q store.Query) *bun.SelectQuery {
	for _, p := range q.Filter {
		col := bun.Ident(string(p.Field))
		switch p.Op {
		case store.OpIn, store.OpNotIn:
			values, _ := p.Value.([]any)
			if len(values) == 0 {
				if p.Op == store.OpIn {
					sel = sel.Where("FALSE")
				}
				continue
			}
			sel = sel.Where("? "+string(p.Op)+" (?)", col, bun.In(values))
		default:
			sel = sel.Where("? "+string(p.Op)+" ?", col, p.Value)
		}
	}
	for _, s := range q.Order {
		if s.Desc {
			sel = sel.OrderExpr("? DESC", bun.Ident(string(s.Field)))
		} else {
			sel = sel.OrderExpr("? ASC", bun.Ident(string(s.Field)))
		}
	}
	return sel
}
