package core

// Row is one result row keyed by column name.
type Row map[string]any

// Record is one instance of an entity.
// Data is keyed by field name and never holds the identifier; the
// identifier lives in ID.
type Record struct {
	Entity *Entity
	ID     any
	Data   map[string]any
}

// NewRecord creates a record for e. The identifier is taken from data when
// the id field is present there, otherwise a client-side id is generated.
func NewRecord(e *Entity, data map[string]any) *Record {
	r := &Record{Entity: e, Data: make(map[string]any, len(data))}
	idName := ""
	if f, err := e.IDField(); err == nil {
		idName = f.Name
	}
	for k, v := range data {
		if k == idName {
			r.ID = v
			continue
		}
		r.Data[k] = v
	}
	if r.ID == nil {
		r.ID = e.NextID()
	}
	return r
}

// Get returns the value of a field.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.Data[field]
	return v, ok
}
