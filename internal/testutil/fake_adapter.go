package testutil

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/query"
)

// FakeAdapter is an in-memory adapter that records every statement.
//
// Serialized statements complete synchronously in issue order. Parallel
// statements are collected while fn runs and then completed concurrently
// in shuffled order. Failures are scripted with FailOn and FailWhen.
type FakeAdapter struct {
	mu         sync.Mutex
	dialect    *dialect.Dialect
	statements []query.Statement
	failures   []failure
	rows       map[string][]core.Row
	nextID     int64

	// ConnectErr is returned by Connect
	ConnectErr error
	// SerializeErr is returned by Serialize without running fn
	SerializeErr error

	Connected    bool
	Closed       bool
	Serialized   int
	Parallelized int
}

type failure struct {
	match func(query.Statement) bool
	err   error
}

var _ adapter.Adapter = (*FakeAdapter)(nil)

// NewFakeAdapter creates a fake backend speaking the given dialect.
// A nil dialect selects the default.
func NewFakeAdapter(d *dialect.Dialect) *FakeAdapter {
	if d == nil {
		d = dialect.Default()
	}
	return &FakeAdapter{dialect: d, rows: make(map[string][]core.Row)}
}

// FailOn fails every statement whose SQL contains substr.
func (f *FakeAdapter) FailOn(substr string, err error) {
	f.FailWhen(func(s query.Statement) bool { return strings.Contains(s.SQL, substr) }, err)
}

// FailWhen fails every statement matching the predicate.
func (f *FakeAdapter) FailWhen(match func(query.Statement) bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, failure{match: match, err: err})
}

// ClearFailures removes every scripted failure.
func (f *FakeAdapter) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = nil
}

// SetRows makes queries whose SQL contains substr return rows.
func (f *FakeAdapter) SetRows(substr string, rows []core.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[substr] = rows
}

// Statements returns the statements issued so far, in issue order.
func (f *FakeAdapter) Statements() []query.Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]query.Statement(nil), f.statements...)
}

// Executed returns the SQL of every issued statement, in issue order.
func (f *FakeAdapter) Executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.statements))
	for i, s := range f.statements {
		out[i] = s.SQL
	}
	return out
}

// Count returns how many issued statements contain substr.
func (f *FakeAdapter) Count(substr string) int {
	n := 0
	for _, sql := range f.Executed() {
		if strings.Contains(sql, substr) {
			n++
		}
	}
	return n
}

// Reset forgets issued statements.
func (f *FakeAdapter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = nil
}

func (f *FakeAdapter) Connect(_ context.Context, _ core.BackendConfig) error {
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = true
	return nil
}

func (f *FakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func (f *FakeAdapter) Dialect() *dialect.Dialect {
	return f.dialect
}

func (f *FakeAdapter) Serialize(ctx context.Context, fn func(adapter.Executor)) error {
	if f.SerializeErr != nil {
		return f.SerializeErr
	}
	f.mu.Lock()
	f.Serialized++
	f.mu.Unlock()

	fn(executorFunc(func(_ context.Context, stmt query.Statement, done adapter.Callback) {
		done(f.run(stmt))
	}))
	return nil
}

func (f *FakeAdapter) Parallelize(ctx context.Context, fn func(adapter.Executor)) error {
	f.mu.Lock()
	f.Parallelized++
	f.mu.Unlock()

	type pending struct {
		stmt query.Statement
		done adapter.Callback
	}
	var queue []pending
	fn(executorFunc(func(_ context.Context, stmt query.Statement, done adapter.Callback) {
		f.record(stmt)
		queue = append(queue, pending{stmt: stmt, done: done})
	}))

	rand.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	var wg sync.WaitGroup
	for _, p := range queue {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.done(f.result(p.stmt))
		}()
	}
	wg.Wait()
	return nil
}

func (f *FakeAdapter) record(stmt query.Statement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, stmt)
}

func (f *FakeAdapter) run(stmt query.Statement) (*adapter.Result, error) {
	f.record(stmt)
	return f.result(stmt)
}

func (f *FakeAdapter) result(stmt query.Statement) (*adapter.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, fl := range f.failures {
		if fl.match(stmt) {
			return nil, fl.err
		}
	}

	res := &adapter.Result{}
	if strings.HasPrefix(stmt.SQL, "INSERT") {
		f.nextID++
		res.InsertID = f.nextID
		res.RowsAffected = 1
		if stmt.Returning {
			res.Rows = []core.Row{{"id": f.nextID}}
		}
		return res, nil
	}
	if stmt.Kind == query.KindQuery {
		for substr, rows := range f.rows {
			if strings.Contains(stmt.SQL, substr) {
				res.Rows = rows
				break
			}
		}
		res.RowsAffected = int64(len(res.Rows))
		return res, nil
	}
	res.RowsAffected = 1
	return res, nil
}

type executorFunc func(context.Context, query.Statement, adapter.Callback)

func (fn executorFunc) Exec(ctx context.Context, stmt query.Statement, done adapter.Callback) {
	fn(ctx, stmt, done)
}
