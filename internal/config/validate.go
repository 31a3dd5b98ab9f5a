package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
)

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if _, err := t.Backend().Identifier(); err != nil {
		return err
	}
	return nil
}

// Validate checks the whole configuration, reporting every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Target == nil {
		errs = append(errs, fmt.Errorf("target is required"))
	} else if err := c.Target.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid target configuration: %w", err))
	}

	if c.Proxy.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("proxy.parallelism must not be negative"))
	}

	schema := c.Schema()
	for _, e := range c.Entities {
		entity := e.Entity()
		if err := entity.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("invalid entity: %w", err))
		}
		if entity.ChildType != "" {
			if _, ok := schema.Entity(entity.ChildType); !ok {
				errs = append(errs, fmt.Errorf("entity %s: unknown child_type %q", entity.Name, entity.ChildType))
			}
		}
	}

	return errors.Join(errs...)
}
