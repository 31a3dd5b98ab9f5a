package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/query"
	"github.com/leapstack-labs/recordsql/pkg/schema"
)

// read creates the table if needed and runs the SELECT in one serialized
// context. The outcome is delivered after the context is released.
func (p *Proxy) read(ctx context.Context, op *core.Operation, model *core.Entity, complete Done) {
	entity := model
	if op.Node != nil {
		childType := op.Node.ChildType
		if childType == "" && model.Heterogeneous() {
			childType = model.ChildType
		}
		if childType != "" && childType != model.Name {
			child, ok := p.schema.Entity(childType)
			if !ok {
				complete(nil, fmt.Errorf("%w: %s", core.ErrUnknownEntity, childType))
				return
			}
			entity = child
		}
	}

	table, err := p.catalog.Table(entity)
	if err != nil {
		complete(nil, err)
		return
	}
	stmt := query.Read(p.dialect, table, op, query.Options{BindFilters: p.cfg.BindFilters})

	var (
		rows  []core.Row
		opErr error
	)
	err = p.adapter.Serialize(ctx, func(ex adapter.Executor) {
		p.ensureTables(ctx, ex, []*schema.Table{table}, func(failed map[*schema.Table]error) {
			if tableErr := failed[table]; tableErr != nil {
				opErr = tableErr
				return
			}
			p.exec(ctx, ex, stmt, func(res *adapter.Result, err error) {
				if err != nil {
					opErr = &core.StatementError{SQL: stmt.SQL, Err: err}
					return
				}
				rows = res.Rows
			})
		})
	})
	if err != nil {
		complete(nil, err)
		return
	}
	if opErr != nil {
		complete(nil, opErr)
		return
	}
	complete(rows, nil)
}

// write creates missing tables serially, then runs one statement per record
// in a parallel context. complete fires once every record is accounted for.
func (p *Proxy) write(ctx context.Context, op *core.Operation, model *core.Entity, complete Done) {
	n := len(op.Records)
	if n == 0 {
		complete(nil, nil)
		return
	}

	agg := newBatch(n, complete)

	tables := make([]*schema.Table, n)
	tableErrs := make([]error, n)
	var distinct []*schema.Table
	seen := make(map[*schema.Table]bool)
	for i, r := range op.Records {
		entity := model
		if model.Heterogeneous() && r.Entity != nil {
			entity = r.Entity
		}
		t, err := p.catalog.Table(entity)
		if err != nil {
			tableErrs[i] = err
			continue
		}
		tables[i] = t
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}

	var failed map[*schema.Table]error
	err := p.adapter.Serialize(ctx, func(ex adapter.Executor) {
		p.ensureTables(ctx, ex, distinct, func(f map[*schema.Table]error) {
			failed = f
		})
	})
	if err != nil {
		complete(nil, err)
		return
	}

	type job struct {
		index int
		table *schema.Table
		stmt  query.Statement
	}
	var jobs []job
	for i, r := range op.Records {
		if tableErrs[i] != nil {
			agg.fail(i, r.ID, tableErrs[i])
			continue
		}
		if tableErr := failed[tables[i]]; tableErr != nil {
			agg.fail(i, r.ID, tableErr)
			continue
		}
		stmt, err := query.Write(op.Action, p.dialect, tables[i], r)
		if err != nil {
			agg.fail(i, r.ID, err)
			continue
		}
		jobs = append(jobs, job{index: i, table: tables[i], stmt: stmt})
	}
	if len(jobs) == 0 {
		return
	}

	err = p.adapter.Parallelize(ctx, func(ex adapter.Executor) {
		for _, j := range jobs {
			r := op.Records[j.index]
			p.exec(ctx, ex, j.stmt, func(res *adapter.Result, err error) {
				if err != nil {
					agg.fail(j.index, r.ID, &core.StatementError{SQL: j.stmt.SQL, Err: err})
					return
				}
				row := core.Row{j.table.ClientIDColumn: r.ID}
				if op.Action == core.ActionCreate && !j.table.Unique() {
					row[j.table.IDColumn] = res.InsertID
				}
				agg.succeed(j.index, row)
			})
		}
	})
	if err != nil {
		complete(nil, err)
	}
}

// ensureTables creates every table not yet known to exist and calls then
// once all creates have finished, with the failures keyed by table.
func (p *Proxy) ensureTables(ctx context.Context, ex adapter.Executor, tables []*schema.Table, then func(map[*schema.Table]error)) {
	var pending []*schema.Table
	for _, t := range tables {
		if !t.Exists() {
			pending = append(pending, t)
		}
	}

	var mu sync.Mutex
	failed := make(map[*schema.Table]error)
	b := newBarrier(len(pending), func() { then(failed) })

	for _, t := range pending {
		p.execAll(ctx, ex, query.CreateTable(p.dialect, t), func(err error) {
			if err != nil {
				mu.Lock()
				failed[t] = &core.TableCreationError{Table: t.Name, Err: err}
				mu.Unlock()
			} else {
				t.MarkCreated()
				p.logger.Debug("created table", slog.String("table", t.Name))
			}
			b.done()
		})
	}
}

// execAll runs statements one after another, stopping at the first failure.
func (p *Proxy) execAll(ctx context.Context, ex adapter.Executor, stmts []query.Statement, done func(error)) {
	if len(stmts) == 0 {
		done(nil)
		return
	}
	p.exec(ctx, ex, stmts[0], func(_ *adapter.Result, err error) {
		if err != nil {
			done(err)
			return
		}
		p.execAll(ctx, ex, stmts[1:], done)
	})
}

func (p *Proxy) exec(ctx context.Context, ex adapter.Executor, stmt query.Statement, done adapter.Callback) {
	ex.Exec(ctx, stmt, func(res *adapter.Result, err error) {
		if err != nil {
			p.logger.Debug("executed statement",
				slog.String("sql", stmt.SQL),
				slog.Any("args", stmt.Args),
				slog.String("error", err.Error()))
		} else {
			p.logger.Debug("executed statement",
				slog.String("sql", stmt.SQL),
				slog.Any("args", stmt.Args))
		}
		done(res, err)
	})
}

// batch aggregates per-record outcomes of a write.
// Rows and failures are reported in record order.
type batch struct {
	mu       sync.Mutex
	rows     []core.Row
	failures []*core.RecordError
	executed int
	complete Done
}

func newBatch(n int, complete Done) *batch {
	return &batch{
		rows:     make([]core.Row, n),
		failures: make([]*core.RecordError, n),
		complete: complete,
	}
}

func (b *batch) succeed(i int, row core.Row) {
	b.record(func() { b.rows[i] = row })
}

func (b *batch) fail(i int, id any, err error) {
	b.record(func() { b.failures[i] = &core.RecordError{ID: id, Err: err} })
}

func (b *batch) record(set func()) {
	b.mu.Lock()
	set()
	b.executed++
	last := b.executed == len(b.rows)
	b.mu.Unlock()

	if last {
		b.finish()
	}
}

func (b *batch) finish() {
	var (
		rows     []core.Row
		failures []core.RecordError
	)
	for i := range b.rows {
		if b.failures[i] != nil {
			failures = append(failures, *b.failures[i])
			continue
		}
		rows = append(rows, b.rows[i])
	}
	if len(failures) > 0 {
		b.complete(rows, &core.BatchError{Failures: failures})
		return
	}
	b.complete(rows, nil)
}
