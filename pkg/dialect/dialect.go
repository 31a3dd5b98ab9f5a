// Package dialect provides SQL dialect configuration for statement generation.
//
// A dialect captures the handful of places where the generated SQL differs
// between engines: parameter placeholders, column types, the auto-increment
// primary key clause, the empty INSERT form, the LIMIT form, and how a
// server-assigned identifier is read back. Dialects are registered by name;
// the built-in sqlite dialect is the default.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical SQL column types produced by schema derivation.
const (
	TypeText    = "TEXT"
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeNumeric = "NUMERIC"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (SQLite, DuckDB, MySQL).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// LimitStyle defines how a result window is expressed.
type LimitStyle int

const (
	// LimitComma renders LIMIT <start>, <limit> (SQLite, MySQL).
	LimitComma LimitStyle = iota
	// LimitOffset renders LIMIT <limit> OFFSET <start> (PostgreSQL, DuckDB).
	LimitOffset
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Placeholder PlaceholderStyle
	Limit       LimitStyle

	types         map[string]string // canonical type -> column type
	keyTypes      map[string]string // canonical type -> primary key column type
	autoIncrement string            // format: column name
	emptyInsert   string            // format: table name
	sequences     bool              // auto-increment is backed by a named sequence
	returning     bool              // inserts read the new id through RETURNING
}

// FormatPlaceholder returns the placeholder for the 1-based parameter index.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// ColumnType maps a canonical type to the column type used by this dialect.
func (d *Dialect) ColumnType(canonical string) string {
	if t, ok := d.types[canonical]; ok {
		return t
	}
	return canonical
}

// KeyType maps a canonical type to the column type used for a primary key.
func (d *Dialect) KeyType(canonical string) string {
	if t, ok := d.keyTypes[canonical]; ok {
		return t
	}
	return d.ColumnType(canonical)
}

// AutoIncrementColumn returns the column definition of an auto-increment primary key.
func (d *Dialect) AutoIncrementColumn(table, column string) string {
	if d.sequences {
		return fmt.Sprintf("%s INTEGER PRIMARY KEY DEFAULT nextval('%s')", column, d.SequenceName(table, column))
	}
	return fmt.Sprintf(d.autoIncrement, column)
}

// UsesSequences reports whether auto-increment keys need a sequence created
// before the table and dropped after it.
func (d *Dialect) UsesSequences() bool {
	return d.sequences
}

// SequenceName returns the sequence backing an auto-increment column.
func (d *Dialect) SequenceName(table, column string) string {
	return table + "_" + column + "_seq"
}

// EmptyInsert returns the INSERT statement used when no column has a value.
func (d *Dialect) EmptyInsert(table string) string {
	return fmt.Sprintf(d.emptyInsert, table)
}

// FormatLimit returns the LIMIT clause (with leading space) for a window.
func (d *Dialect) FormatLimit(start, limit int) string {
	if d.Limit == LimitOffset {
		return " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(start)
	}
	return " LIMIT " + strconv.Itoa(start) + ", " + strconv.Itoa(limit)
}

// Returning reports whether inserts use RETURNING to read back the new id.
func (d *Dialect) Returning() bool {
	return d.returning
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with SQLite defaults.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name:          strings.ToLower(name),
			Placeholder:   PlaceholderQuestion,
			Limit:         LimitComma,
			types:         make(map[string]string),
			keyTypes:      make(map[string]string),
			autoIncrement: "%s INTEGER PRIMARY KEY AUTOINCREMENT",
			emptyInsert:   "INSERT INTO %s DEFAULT VALUES",
		},
	}
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// LimitStyle sets how result windows are rendered.
func (b *Builder) LimitStyle(style LimitStyle) *Builder {
	b.dialect.Limit = style
	return b
}

// ColumnType overrides the column type used for a canonical type.
func (b *Builder) ColumnType(canonical, actual string) *Builder {
	b.dialect.types[canonical] = actual
	return b
}

// KeyType overrides the column type used for a canonical type in a primary key.
func (b *Builder) KeyType(canonical, actual string) *Builder {
	b.dialect.keyTypes[canonical] = actual
	return b
}

// AutoIncrement sets the auto-increment primary key format; %s is the column name.
func (b *Builder) AutoIncrement(format string) *Builder {
	b.dialect.autoIncrement = format
	return b
}

// Sequences backs auto-increment keys with a named sequence.
func (b *Builder) Sequences() *Builder {
	b.dialect.sequences = true
	return b
}

// EmptyInsert sets the empty INSERT format; %s is the table name.
func (b *Builder) EmptyInsert(format string) *Builder {
	b.dialect.emptyInsert = format
	return b
}

// Returning makes inserts read the new id through RETURNING.
func (b *Builder) Returning() *Builder {
	b.dialect.returning = true
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
