package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// FieldType is the declared type of a model field.
// Values are compared case-insensitively.
type FieldType string

// Field type constants.
const (
	FieldAuto    FieldType = "auto"
	FieldString  FieldType = "string"
	FieldInt     FieldType = "int"
	FieldFloat   FieldType = "float"
	FieldBool    FieldType = "bool"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
)

// Normalize returns the lowercase form of the type.
func (t FieldType) Normalize() FieldType {
	return FieldType(strings.ToLower(string(t)))
}

// Parse converts a raw string into a Go value suited to the field type.
// Unknown types keep the raw string.
func (t FieldType) Parse(raw string) (any, error) {
	switch t.Normalize() {
	case FieldInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q: %w", raw, err)
		}
		return v, nil
	case FieldFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", raw, err)
		}
		return v, nil
	case FieldBool, FieldBoolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// IdentifierKind selects how client-side identifiers are generated for new records.
type IdentifierKind string

const (
	// IdentifierSequential generates "<Entity>-<n>" placeholders; the backend assigns the real id.
	IdentifierSequential IdentifierKind = "sequential"
	// IdentifierUUID generates globally unique ids that are persisted as-is.
	IdentifierUUID IdentifierKind = "uuid"
)

// DefaultClientIDProperty is the client-id property used when an entity declares none.
const DefaultClientIDProperty = "clientId"

// Field describes one field of an entity.
type Field struct {
	// Name is the field name used in record data
	Name string
	// Type is the declared field type
	Type FieldType
	// Mapping is an explicit column name; empty means the field name
	Mapping string
	// Transient fields are never persisted
	Transient bool
	// Identifier marks the entity's id field
	Identifier bool
}

// Persisted reports whether the field is stored in a column.
func (f Field) Persisted() bool {
	return !f.Transient
}

// Column returns the column name the field maps to.
func (f Field) Column() string {
	if f.Mapping != "" {
		return f.Mapping
	}
	return f.Name
}

// Entity is a record kind mapped to one table.
type Entity struct {
	// Name is the entity name, also the default table name
	Name string
	// Fields in declaration order
	Fields []Field
	// Identifier selects the id generator; empty means sequential
	Identifier IdentifierKind
	// ClientIDProperty names the property carrying client-side ids in write results
	ClientIDProperty string
	// IsNode marks entities used as tree nodes
	IsNode bool
	// ChildType names the entity that children of this node are stored as
	ChildType string

	mu  sync.Mutex
	seq atomic.Int64
}

// IDField returns the single identifier field of the entity.
func (e *Entity) IDField() (Field, error) {
	var (
		found Field
		count int
	)
	for _, f := range e.Fields {
		if f.Identifier {
			found = f
			count++
		}
	}
	if count != 1 {
		return Field{}, fmt.Errorf("%w: entity %s has %d identifier fields", ErrIdentifier, e.Name, count)
	}
	return found, nil
}

// Field looks up a field by name.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// UniqueIdentifier reports whether the entity's ids are globally unique.
func (e *Entity) UniqueIdentifier() bool {
	return e.Identifier == IdentifierUUID
}

// Heterogeneous reports whether the entity is a tree node whose children
// are a different entity, so a write batch may span several tables.
func (e *Entity) Heterogeneous() bool {
	return e.IsNode && e.ChildType != ""
}

// ClientID returns the client-id property, or empty when none is declared.
func (e *Entity) ClientID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ClientIDProperty
}

// EnsureClientID returns the client-id property, storing def on the entity
// first when none is declared.
func (e *Entity) EnsureClientID(def string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClientIDProperty == "" {
		e.ClientIDProperty = def
	}
	return e.ClientIDProperty
}

// NextID generates a client-side identifier for a new record.
func (e *Entity) NextID() any {
	if e.UniqueIdentifier() {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%d", e.Name, e.seq.Add(1))
}

// Validate checks the entity definition.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if _, err := e.IDField(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(e.Fields))
	for _, f := range e.Fields {
		if f.Name == "" {
			return fmt.Errorf("entity %s: field name is required", e.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("entity %s: duplicate field %q", e.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	switch e.Identifier {
	case "", IdentifierSequential, IdentifierUUID:
	default:
		return fmt.Errorf("entity %s: unknown identifier %q", e.Name, e.Identifier)
	}
	return nil
}

// Schema is a registry of entities by name.
// Child-type links between entities are resolved through it.
type Schema struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewSchema creates a schema holding the given entities.
func NewSchema(entities ...*Entity) *Schema {
	s := &Schema{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		s.Register(e)
	}
	return s
}

// Register adds or replaces an entity.
func (s *Schema) Register(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.Name] = e
}

// Entity returns the entity with the given name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	return e, ok
}

// Names returns all entity names (sorted).
func (s *Schema) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
