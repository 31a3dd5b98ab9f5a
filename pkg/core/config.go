package core

import (
	"fmt"
	"strconv"
)

// BackendConfig holds configuration for connecting to a database.
type BackendConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	Params   map[string]any
}

// Identifier returns the key under which the connection is shared:
// the file path for file-based engines, otherwise host, port and database.
func (c BackendConfig) Identifier() (string, error) {
	if c.Path != "" {
		return c.Type + ":" + c.Path, nil
	}
	if c.Database == "" {
		return "", &ConfigurationError{Field: "database", Reason: "is required (file path or database name)"}
	}
	if c.Host == "" {
		return c.Type + ":" + c.Database, nil
	}
	port := ""
	if c.Port != 0 {
		port = ":" + strconv.Itoa(c.Port)
	}
	return fmt.Sprintf("%s://%s%s/%s", c.Type, c.Host, port, c.Database), nil
}
