// Package schema derives table descriptors from entity metadata and caches
// them per entity.
package schema

import "sync/atomic"

// KeyStrategy is the primary-key strategy of a table.
type KeyStrategy int

const (
	// AutoIncrement lets the backend assign integer ids.
	AutoIncrement KeyStrategy = iota
	// ExternalUnique stores caller-supplied globally unique ids.
	ExternalUnique
)

// String returns the string representation of the strategy.
func (s KeyStrategy) String() string {
	if s == ExternalUnique {
		return "external-unique"
	}
	return "auto-increment"
}

// MarshalText implements encoding.TextMarshaler.
func (s KeyStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Column maps an entity field to a table column.
type Column struct {
	Field      string `json:"field" yaml:"field"`
	Name       string `json:"column" yaml:"column"`
	Identifier bool   `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

// Table describes the table an entity is stored in.
// Tables are shared by pointer; the exists flag is safe for concurrent use.
type Table struct {
	Name           string      `json:"name" yaml:"name"`
	Schema         string      `json:"schema" yaml:"schema"`
	Columns        []Column    `json:"columns" yaml:"columns"`
	Strategy       KeyStrategy `json:"strategy" yaml:"strategy"`
	IDColumn       string      `json:"id_column" yaml:"id_column"`
	IDField        string      `json:"id_field" yaml:"id_field"`
	ClientIDColumn string      `json:"client_id_column" yaml:"client_id_column"`

	exists atomic.Bool
}

// Column returns the column a field maps to.
func (t *Table) Column(field string) (string, bool) {
	for _, c := range t.Columns {
		if c.Field == field {
			return c.Name, true
		}
	}
	return "", false
}

// Unique reports whether the table uses caller-supplied unique ids.
func (t *Table) Unique() bool {
	return t.Strategy == ExternalUnique
}

// Exists reports whether the table is known to exist in the backend.
func (t *Table) Exists() bool {
	return t.exists.Load()
}

// MarkCreated records a successful CREATE TABLE IF NOT EXISTS.
func (t *Table) MarkCreated() {
	t.exists.Store(true)
}

// MarkDropped records a DROP TABLE, whatever its outcome.
func (t *Table) MarkDropped() {
	t.exists.Store(false)
}
