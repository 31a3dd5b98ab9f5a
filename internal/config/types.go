// Package config loads recordsql configuration: the backend target, proxy
// settings and the entity definitions operations run against.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/proxy"
)

// Config holds all configuration options.
type Config struct {
	Target   *TargetConfig  `koanf:"target"`
	Proxy    ProxyConfig    `koanf:"proxy"`
	Entities []EntityConfig `koanf:"entities"`
	Verbose  bool           `koanf:"verbose"`
	Output   string         `koanf:"output"`

	// ConfigFile is the file the configuration was read from, if any
	ConfigFile string `koanf:"-"`
}

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres, mysql

	// File path for file-based databases (SQLite, DuckDB), database name otherwise
	Database string `koanf:"database"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., SQLite pragmas, DuckDB settings)
	Params map[string]any `koanf:"params"`
}

// ProxyConfig holds statement generation and execution settings.
type ProxyConfig struct {
	Table            string `koanf:"table"`
	UniqueIDStrategy bool   `koanf:"unique_id_strategy"`
	BindFilters      bool   `koanf:"bind_filters"`
	Debug            bool   `koanf:"debug"`
	Parallelism      int    `koanf:"parallelism"`
}

// EntityConfig defines one entity.
type EntityConfig struct {
	Name             string        `koanf:"name"`
	Identifier       string        `koanf:"identifier"` // sequential, uuid
	ClientIDProperty string        `koanf:"client_id_property"`
	IsNode           bool          `koanf:"is_node"`
	ChildType        string        `koanf:"child_type"`
	Fields           []FieldConfig `koanf:"fields"`
}

// FieldConfig defines one entity field.
type FieldConfig struct {
	Name       string `koanf:"name"`
	Type       string `koanf:"type"`
	Mapping    string `koanf:"mapping"`
	Persist    *bool  `koanf:"persist"` // nil means persisted
	Identifier bool   `koanf:"identifier"`
}

// fileBased lists target types whose database setting is a file path.
var fileBased = map[string]bool{"sqlite": true, "duckdb": true}

// Backend converts the target into a backend configuration.
func (t *TargetConfig) Backend() core.BackendConfig {
	typ := strings.ToLower(t.Type)
	cfg := core.BackendConfig{
		Type:     typ,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		Params:   t.Params,
	}
	if fileBased[typ] {
		cfg.Path = t.Database
	} else {
		cfg.Database = t.Database
	}
	return cfg
}

// ProxyOptions converts the proxy section into proxy settings.
func (p ProxyConfig) ProxyOptions() proxy.Config {
	return proxy.Config{
		Table:            p.Table,
		UniqueIDStrategy: p.UniqueIDStrategy,
		BindFilters:      p.BindFilters,
		Parallelism:      p.Parallelism,
	}
}

// Entity converts the definition into a model entity.
func (e EntityConfig) Entity() *core.Entity {
	entity := &core.Entity{
		Name:             e.Name,
		Identifier:       core.IdentifierKind(strings.ToLower(e.Identifier)),
		ClientIDProperty: e.ClientIDProperty,
		IsNode:           e.IsNode,
		ChildType:        e.ChildType,
	}
	for _, f := range e.Fields {
		typ := core.FieldType(f.Type)
		if typ == "" {
			typ = core.FieldAuto
		}
		entity.Fields = append(entity.Fields, core.Field{
			Name:       f.Name,
			Type:       typ,
			Mapping:    f.Mapping,
			Transient:  f.Persist != nil && !*f.Persist,
			Identifier: f.Identifier,
		})
	}
	return entity
}

// Schema builds the entity registry from the configured entities.
func (c *Config) Schema() *core.Schema {
	s := core.NewSchema()
	for _, e := range c.Entities {
		s.Register(e.Entity())
	}
	return s
}

// Model returns the named entity, or the first configured entity when
// name is empty.
func (c *Config) Model(s *core.Schema, name string) (*core.Entity, error) {
	if name == "" {
		if len(c.Entities) == 0 {
			return nil, fmt.Errorf("no entities configured\nHint: add an entities section to %s", ConfigFileName)
		}
		name = c.Entities[0].Name
	}
	e, ok := s.Entity(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", core.ErrUnknownEntity, name, s.Names())
	}
	return e, nil
}
