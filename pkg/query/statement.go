// Package query builds SQL statements for record operations.
//
// Builders are pure: they take a dialect, a table descriptor and the
// operation payload and return statements without touching a backend.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/dialect"
)

var (
	// ErrNothingToUpdate is returned when an update has no column to set.
	ErrNothingToUpdate = errors.New("nothing to update")

	// ErrUnknownAction is returned when a write is dispatched with a non-write action.
	ErrUnknownAction = errors.New("unknown write action")
)

// Kind tells the executor whether a statement yields rows.
type Kind int

const (
	// KindExec statements report rows affected and the last insert id.
	KindExec Kind = iota
	// KindQuery statements yield rows.
	KindQuery
)

// Statement is one SQL statement with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
	Kind Kind
	// Returning marks inserts whose first result column is the new id
	Returning bool
}

// String returns the SQL text.
func (s Statement) String() string {
	return s.SQL
}

// Options tune statement generation.
type Options struct {
	// BindFilters renders read filter, parent and id values as bound
	// parameters instead of quoted literals.
	BindFilters bool
}

// args collects bound values and hands out placeholders in order.
type args struct {
	dialect *dialect.Dialect
	values  []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return a.dialect.FormatPlaceholder(len(a.values))
}

// quote renders a value as a single-quoted SQL literal.
func quote(v any) string {
	return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
}

// literal renders numbers as-is and everything else quoted.
func literal(v any) string {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(n)
	default:
		return quote(v)
	}
}
