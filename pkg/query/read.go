package query

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/schema"
)

// Read builds the SELECT for a read operation.
//
// A target id without a parent node selects that single record and ignores
// filters, sorters and paging. Otherwise filters on unmapped properties are
// skipped, a parent node adds its parent-id condition, and sorters and the
// page are applied in that order.
func Read(d *dialect.Dialect, t *schema.Table, op *core.Operation, opts Options) Statement {
	a := &args{dialect: d}
	value := func(v any) string {
		if opts.BindFilters {
			return a.bind(v)
		}
		return quote(v)
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(t.Name)

	if op.ID != nil && op.Node == nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(t.IDColumn)
		sb.WriteString(" = ")
		if opts.BindFilters {
			sb.WriteString(a.bind(op.ID))
		} else {
			sb.WriteString(literal(op.ID))
		}
		return Statement{SQL: sb.String(), Args: a.values, Kind: KindQuery}
	}

	conj := " WHERE "
	for _, f := range op.Filters {
		col, ok := t.Column(f.Property)
		if !ok {
			continue
		}
		sb.WriteString(conj)
		sb.WriteString(col)
		if f.AnyMatch {
			sb.WriteString(" LIKE ")
			sb.WriteString(value("%" + fmt.Sprint(f.Value) + "%"))
		} else {
			sb.WriteString(" = ")
			sb.WriteString(value(f.Value))
		}
		conj = " AND "
	}

	if op.Node != nil {
		parent := op.Node.ParentProperty()
		if col, ok := t.Column(parent); ok {
			parent = col
		}
		sb.WriteString(conj)
		sb.WriteString(parent)
		sb.WriteString(" = ")
		sb.WriteString(value(op.Node.ID))
	}

	sep := " ORDER BY "
	for _, s := range op.Sorters {
		col, ok := t.Column(s.Property)
		if !ok {
			continue
		}
		sb.WriteString(sep)
		sb.WriteString(col)
		sb.WriteString(" ")
		sb.WriteString(string(s.Direction.Normalize()))
		sep = ", "
	}

	if op.Page != nil {
		sb.WriteString(d.FormatLimit(op.Page.Start, op.Page.Limit))
	}

	return Statement{SQL: sb.String(), Args: a.values, Kind: KindQuery}
}
