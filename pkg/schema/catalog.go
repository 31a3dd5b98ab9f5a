package schema

import (
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// Catalog caches one table descriptor per entity name.
// Descriptors are derived lazily on first access.
type Catalog struct {
	mu      sync.Mutex
	deriver *Deriver
	tables  map[string]*Table
	names   map[string]string // entity name -> explicit table name
}

// NewCatalog creates an empty catalog backed by the deriver.
func NewCatalog(d *Deriver) *Catalog {
	return &Catalog{
		deriver: d,
		tables:  make(map[string]*Table),
		names:   make(map[string]string),
	}
}

// Table returns the descriptor for the entity, deriving it on first use.
func (c *Catalog) Table(e *core.Entity) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[e.Name]; ok {
		return t, nil
	}

	name := e.Name
	if n, ok := c.names[e.Name]; ok {
		name = n
	}
	t, err := c.deriver.DeriveNamed(e, name)
	if err != nil {
		return nil, err
	}
	c.tables[e.Name] = t
	return t, nil
}

// Override stores the entity under an explicit table name, replacing any
// cached descriptor.
func (c *Catalog) Override(e *core.Entity, name string) (*Table, error) {
	t, err := c.deriver.DeriveNamed(e, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[e.Name] = name
	c.tables[e.Name] = t
	return t, nil
}

// Evict forgets the descriptor of an entity.
func (c *Catalog) Evict(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, entity)
	delete(c.names, entity)
}

// Cached returns the cached descriptor of an entity without deriving it.
func (c *Catalog) Cached(entity string) (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[entity]
	return t, ok
}

// Reset clears every cached descriptor.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*Table)
	c.names = make(map[string]string)
}
