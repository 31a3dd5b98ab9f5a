package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
)

// parseAssignments converts field=value arguments into record data typed
// by the entity's field declarations.
func parseAssignments(e *core.Entity, args []string) (map[string]any, error) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected field=value)", arg)
		}
		v, err := parseFieldValue(e, name, raw)
		if err != nil {
			return nil, err
		}
		data[name] = v
	}
	return data, nil
}

// parseFieldValue parses raw according to the declared type of field.
func parseFieldValue(e *core.Entity, field, raw string) (any, error) {
	f, ok := e.Field(field)
	if !ok {
		return nil, fmt.Errorf("entity %s has no field %q", e.Name, field)
	}
	v, err := f.Type.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return v, nil
}

// parseID parses an identifier argument using the entity's id field type.
func parseID(e *core.Entity, raw string) (any, error) {
	f, err := e.IDField()
	if err != nil {
		return nil, err
	}
	return parseFieldValue(e, f.Name, raw)
}

// typedData converts loosely typed values read from a records file,
// reparsing strings for typed fields.
func typedData(e *core.Entity, in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if _, ok := e.Field(k); !ok {
			return nil, fmt.Errorf("entity %s has no field %q", e.Name, k)
		}
		if s, ok := v.(string); ok {
			parsed, err := parseFieldValue(e, k, s)
			if err != nil {
				return nil, err
			}
			v = parsed
		}
		out[k] = v
	}
	return out, nil
}
