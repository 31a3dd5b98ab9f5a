package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/query"
	"golang.org/x/sync/errgroup"
)

// ErrNotConnected is returned when an adapter is used before Connect.
var ErrNotConnected = errors.New("database connection not established")

// SQLAdapter provides the execution contexts on top of database/sql.
// Embed it in concrete adapters and fill DB in Connect.
type SQLAdapter struct {
	DB     *sql.DB
	Cfg    core.BackendConfig
	Logger *slog.Logger
	// Parallelism caps concurrent statements in a parallel context; zero means unlimited
	Parallelism int
}

// Close closes the database connection.
func (b *SQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *SQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Serialize pins one connection and runs every statement on it in order.
func (b *SQLAdapter) Serialize(ctx context.Context, fn func(Executor)) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	fn(&serialExecutor{conn: conn})
	return nil
}

// Parallelize runs each statement in its own goroutine on the pool and
// waits for all of them.
func (b *SQLAdapter) Parallelize(ctx context.Context, fn func(Executor)) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	g := &errgroup.Group{}
	if b.Parallelism > 0 {
		g.SetLimit(b.Parallelism)
	}

	fn(&parallelExecutor{db: b.DB, g: g})
	return g.Wait()
}

type serialExecutor struct {
	conn *sql.Conn
}

func (e *serialExecutor) Exec(ctx context.Context, stmt query.Statement, done Callback) {
	done(execStatement(ctx, e.conn, stmt))
}

type parallelExecutor struct {
	db *sql.DB
	g  *errgroup.Group
}

func (e *parallelExecutor) Exec(ctx context.Context, stmt query.Statement, done Callback) {
	e.g.Go(func() error {
		done(execStatement(ctx, e.db, stmt))
		return nil
	})
}

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// execStatement runs one statement. Queries return their rows; a RETURNING
// insert also reports the first column of its first row as the insert id.
func execStatement(ctx context.Context, q querier, stmt query.Statement) (*Result, error) {
	if stmt.Kind == query.KindQuery {
		rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}
		defer func() { _ = rows.Close() }()

		cols, out, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		res := &Result{Rows: out, RowsAffected: int64(len(out))}
		if stmt.Returning && len(out) > 0 && len(cols) > 0 {
			res.InsertID = out[0][cols[0]]
		}
		return res, nil
	}

	r, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SQL: %w", err)
	}
	res := &Result{}
	if id, err := r.LastInsertId(); err == nil {
		res.InsertID = id
	}
	if n, err := r.RowsAffected(); err == nil {
		res.RowsAffected = n
	}
	return res, nil
}

// scanRows reads every row into a column-keyed map.
// Byte slices are copied into strings.
func scanRows(rows *sql.Rows) ([]string, []core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []core.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return cols, out, nil
}
