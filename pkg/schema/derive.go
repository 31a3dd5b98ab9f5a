package schema

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
)

// SQLType maps a field type to its canonical SQL column type.
func SQLType(t core.FieldType) string {
	switch t.Normalize() {
	case core.FieldInt:
		return dialect.TypeInteger
	case core.FieldFloat:
		return dialect.TypeReal
	case core.FieldBool, core.FieldBoolean:
		return dialect.TypeNumeric
	default: // date, string, auto and anything unknown
		return dialect.TypeText
	}
}

// Deriver builds table descriptors from entity metadata.
type Deriver struct {
	Dialect *dialect.Dialect
	// UniqueIDStrategy forces ExternalUnique keys for every entity
	UniqueIDStrategy bool
}

// NewDeriver creates a deriver. A nil dialect selects the default.
func NewDeriver(d *dialect.Dialect, uniqueIDStrategy bool) *Deriver {
	if d == nil {
		d = dialect.Default()
	}
	return &Deriver{Dialect: d, UniqueIDStrategy: uniqueIDStrategy}
}

// Derive builds the descriptor of the table named after the entity.
func (d *Deriver) Derive(e *core.Entity) (*Table, error) {
	return d.DeriveNamed(e, e.Name)
}

// DeriveNamed builds the descriptor of the entity stored in the named table.
//
// The identifier column comes first in the DDL; the remaining persisted
// fields follow in declaration order. When the entity declares no client-id
// property, the default is stored back on the entity.
func (d *Deriver) DeriveNamed(e *core.Entity, name string) (*Table, error) {
	idField, err := e.IDField()
	if err != nil {
		return nil, err
	}
	if !idField.Persisted() {
		return nil, fmt.Errorf("%w: identifier field %s of %s is not persisted", core.ErrIdentifier, idField.Name, e.Name)
	}

	strategy := AutoIncrement
	if d.UniqueIDStrategy || e.UniqueIdentifier() {
		strategy = ExternalUnique
	}

	t := &Table{
		Name:           name,
		Strategy:       strategy,
		IDColumn:       idField.Column(),
		IDField:        idField.Name,
		ClientIDColumn: e.EnsureClientID(core.DefaultClientIDProperty),
	}

	defs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !f.Persisted() {
			continue
		}
		col := f.Column()
		t.Columns = append(t.Columns, Column{Field: f.Name, Name: col, Identifier: f.Identifier})

		if f.Identifier {
			var def string
			if strategy == ExternalUnique {
				def = col + " " + d.Dialect.KeyType(SQLType(f.Type)) + " PRIMARY KEY"
			} else {
				def = d.Dialect.AutoIncrementColumn(name, col)
			}
			defs = append([]string{def}, defs...)
			continue
		}
		defs = append(defs, col+" "+d.Dialect.ColumnType(SQLType(f.Type)))
	}
	t.Schema = strings.Join(defs, ", ")

	return t, nil
}
