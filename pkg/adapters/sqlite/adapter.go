// Package sqlite provides the SQLite backend, built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Params holds SQLite-specific configuration.
// Parsed from core.BackendConfig.Params using mapstructure.
type Params struct {
	// Pragmas applied to every connection (e.g., foreign_keys: "1")
	Pragmas map[string]string `mapstructure:"pragmas"`

	// BusyTimeout in milliseconds before a locked database errors
	BusyTimeout int `mapstructure:"busy_timeout"`

	// MaxOpenConns caps the pool; defaults to 1
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.SQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		SQLAdapter: adapter.SQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return dialect.SQLite
}

// Connect opens the database file at cfg.Path.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg core.BackendConfig) error {
	var params Params
	if err := adapter.DecodeParams(cfg.Params, &params); err != nil {
		return err
	}

	dsn := buildDSN(cfg, params)
	a.Logger.Debug("connecting to sqlite", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	// one connection keeps a :memory: database visible to every statement
	maxConns := params.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildDSN appends pragmas to the database path as _pragma query params.
func buildDSN(cfg core.BackendConfig, params Params) string {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = MemoryPath
	}

	q := url.Values{}
	if params.BusyTimeout > 0 {
		q.Add("_pragma", "busy_timeout("+strconv.Itoa(params.BusyTimeout)+")")
	}
	names := make([]string, 0, len(params.Pragmas))
	for name := range params.Pragmas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		q.Add("_pragma", name+"("+params.Pragmas[name]+")")
	}

	if len(q) == 0 {
		return path
	}
	return "file:" + path + "?" + q.Encode()
}
