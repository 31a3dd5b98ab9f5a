package query

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/schema"
)

// Write builds the statement for one record of a write operation.
func Write(action core.Action, d *dialect.Dialect, t *schema.Table, r *core.Record) (Statement, error) {
	switch action {
	case core.ActionCreate:
		return Create(d, t, r), nil
	case core.ActionUpdate:
		return Update(d, t, r)
	case core.ActionDestroy:
		return Destroy(d, t, r), nil
	default:
		return Statement{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// Create builds the INSERT for a record. Under AutoIncrement the id column
// is left to the backend; under ExternalUnique the record id is stored.
func Create(d *dialect.Dialect, t *schema.Table, r *core.Record) Statement {
	a := &args{dialect: d}
	var cols, holders []string

	for _, c := range t.Columns {
		if c.Identifier {
			if t.Unique() {
				cols = append(cols, c.Name)
				holders = append(holders, a.bind(r.ID))
			}
			continue
		}
		v, ok := r.Data[c.Field]
		if !ok {
			continue
		}
		cols = append(cols, c.Name)
		holders = append(holders, a.bind(v))
	}

	var sql string
	if len(cols) == 0 {
		sql = d.EmptyInsert(t.Name)
	} else {
		sql = "INSERT INTO " + t.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(holders, ", ") + ")"
	}

	stmt := Statement{SQL: sql, Args: a.values, Kind: KindExec}
	if d.Returning() && !t.Unique() {
		stmt.SQL += " RETURNING " + t.IDColumn
		stmt.Kind = KindQuery
		stmt.Returning = true
	}
	return stmt
}

// Update builds the UPDATE for a record; the id is the last bound value.
func Update(d *dialect.Dialect, t *schema.Table, r *core.Record) (Statement, error) {
	a := &args{dialect: d}
	var sets []string

	for _, c := range t.Columns {
		if c.Identifier {
			continue
		}
		v, ok := r.Data[c.Field]
		if !ok {
			continue
		}
		sets = append(sets, c.Name+" = "+a.bind(v))
	}
	if len(sets) == 0 {
		return Statement{}, fmt.Errorf("%w: record %v of %s", ErrNothingToUpdate, r.ID, t.Name)
	}

	where := a.bind(r.ID)
	return Statement{
		SQL:  "UPDATE " + t.Name + " SET " + strings.Join(sets, ", ") + " WHERE " + t.IDColumn + " = " + where,
		Args: a.values,
		Kind: KindExec,
	}, nil
}

// Destroy builds the DELETE for a record.
func Destroy(d *dialect.Dialect, t *schema.Table, r *core.Record) Statement {
	return Statement{
		SQL:  "DELETE FROM " + t.Name + " WHERE " + t.IDColumn + " = " + d.FormatPlaceholder(1),
		Args: []any{r.ID},
		Kind: KindExec,
	}
}
