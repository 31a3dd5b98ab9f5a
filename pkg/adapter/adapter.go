// Package adapter defines the backend boundary used by the proxy.
//
// A backend offers two execution disciplines. A serialized context runs
// statements one after another in issue order on a single connection; a
// parallel context runs them concurrently and calls each statement's
// callback as it finishes. Concrete backends live in pkg/adapters and
// register themselves by name.
package adapter

import (
	"context"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/query"
)

// Result is the outcome of one statement.
type Result struct {
	// Rows holds the rows of a query, keyed by column name
	Rows []core.Row
	// InsertID is the id assigned by the backend to an inserted row, if any
	InsertID any
	// RowsAffected by an exec statement
	RowsAffected int64
}

// Callback receives the outcome of one statement. It is called exactly once.
type Callback func(*Result, error)

// Executor runs statements within an execution context.
type Executor interface {
	// Exec runs the statement and calls done with its outcome.
	Exec(ctx context.Context, stmt query.Statement, done Callback)
}

// Adapter defines the interface that all backends must implement.
type Adapter interface {
	// Connect establishes a connection to the backend using the provided config.
	Connect(ctx context.Context, cfg core.BackendConfig) error

	// Close closes the connection and releases resources.
	Close() error

	// Serialize calls fn with an executor that runs statements in issue
	// order. Every callback has fired when Serialize returns.
	Serialize(ctx context.Context, fn func(Executor)) error

	// Parallelize calls fn with an executor that may run statements
	// concurrently. Every callback has fired when Parallelize returns.
	Parallelize(ctx context.Context, fn func(Executor)) error

	// Dialect returns the SQL dialect statements are built for.
	Dialect() *dialect.Dialect
}
