package config

// Default configuration values.
const (
	ConfigFileName    = "recordsql.yaml"
	ConfigFileNameAlt = "recordsql.yml"

	DefaultTargetType = "sqlite"
	DefaultDatabase   = "recordsql.db"
	DefaultOutput     = "auto" // Auto-detect: TTY=table, non-TTY=json
)

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	if fileBased[t.Type] && t.Database == "" {
		t.Database = DefaultDatabase
	}

	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	}
}
