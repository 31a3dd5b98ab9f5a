// Package proxy translates record operations into SQL and coordinates their
// execution against a backend.
//
// A Proxy is bound to one model entity. Reads run in a serialized context:
// missing tables are created first, then the SELECT runs. Writes create
// missing tables in a serialized context and then issue one statement per
// record in a parallel context, reporting per-record failures together.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/query"
	"github.com/leapstack-labs/recordsql/pkg/schema"
)

// Config holds proxy settings.
type Config struct {
	// Table stores the bound model under this name instead of its entity name
	Table string
	// UniqueIDStrategy stores caller-supplied ids for every entity
	UniqueIDStrategy bool
	// BindFilters binds read filter values instead of quoting them
	BindFilters bool
	// Parallelism caps concurrent write statements; zero leaves the adapter default
	Parallelism int
	// Logger receives statement and failure logs; nil discards them
	Logger *slog.Logger
}

// Done receives the outcome of an operation.
type Done func(rows []core.Row, err error)

// Proxy executes record operations for a bound model.
type Proxy struct {
	adapter adapter.Adapter
	schema  *core.Schema
	dialect *dialect.Dialect
	catalog *schema.Catalog
	cfg     Config
	logger  *slog.Logger

	mu      sync.RWMutex
	model   *core.Entity
	release func() error
}

// New creates a proxy over a connected adapter. The schema resolves child
// types of tree entities and may be nil when no entity has children.
func New(a adapter.Adapter, s *core.Schema, cfg Config) (*Proxy, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: no adapter", core.ErrSchema)
	}
	d := a.Dialect()
	if d == nil {
		d = dialect.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Parallelism > 0 {
		if ps, ok := a.(adapter.ParallelismSetter); ok {
			ps.SetParallelism(cfg.Parallelism)
		}
	}

	return &Proxy{
		adapter: a,
		schema:  s,
		dialect: d,
		catalog: schema.NewCatalog(schema.NewDeriver(d, cfg.UniqueIDStrategy)),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Open creates a proxy over a shared connection. Close releases it.
func Open(ctx context.Context, conns *adapter.Connections, backend core.BackendConfig, s *core.Schema, cfg Config) (*Proxy, error) {
	a, err := conns.Open(ctx, backend)
	if err != nil {
		return nil, err
	}
	p, err := New(a, s, cfg)
	if err != nil {
		_ = conns.Release(backend)
		return nil, err
	}
	p.release = func() error { return conns.Release(backend) }
	return p, nil
}

// SetModel binds the proxy to an entity. The previous model's table
// descriptor is evicted.
func (p *Proxy) SetModel(e *core.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		p.catalog.Evict(p.model.Name)
	}
	p.model = e
	if p.cfg.Table != "" {
		if _, err := p.catalog.Override(e, p.cfg.Table); err != nil {
			return err
		}
	}
	return nil
}

// Model returns the bound entity.
func (p *Proxy) Model() *core.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Dialect returns the dialect statements are built for.
func (p *Proxy) Dialect() *dialect.Dialect {
	return p.dialect
}

// Table returns the table descriptor of an entity; nil means the bound model.
func (p *Proxy) Table(e *core.Entity) (*schema.Table, error) {
	if e == nil {
		e = p.Model()
	}
	if e == nil {
		return nil, errNoModel
	}
	return p.catalog.Table(e)
}

// Execute runs an operation and waits for its outcome.
func (p *Proxy) Execute(ctx context.Context, op *core.Operation) ([]core.Row, error) {
	type outcome struct {
		rows []core.Row
		err  error
	}
	ch := make(chan outcome, 1)
	p.Run(ctx, op, func(rows []core.Row, err error) {
		ch <- outcome{rows: rows, err: err}
	})

	// Run has delivered the outcome by the time it returns
	o := <-ch
	return o.rows, o.err
}

// Run executes an operation and calls done exactly once with its outcome.
func (p *Proxy) Run(ctx context.Context, op *core.Operation, done Done) {
	var once sync.Once
	complete := func(rows []core.Row, err error) {
		once.Do(func() {
			if err != nil {
				p.logger.Error("operation failed",
					slog.String("action", op.Action.String()),
					slog.String("error", err.Error()))
			}
			done(rows, err)
		})
	}

	model := p.Model()
	if model == nil {
		complete(nil, errNoModel)
		return
	}

	if op.IsRead() {
		p.read(ctx, op, model, complete)
		return
	}
	p.write(ctx, op, model, complete)
}

// DropTable drops the table of an entity; nil means the bound model.
// The table is marked absent whatever the outcome.
func (p *Proxy) DropTable(ctx context.Context, e *core.Entity) error {
	table, err := p.Table(e)
	if err != nil {
		return err
	}
	defer table.MarkDropped()

	var dropErr error
	err = p.adapter.Serialize(ctx, func(ex adapter.Executor) {
		p.execAll(ctx, ex, query.DropTable(p.dialect, table), func(err error) {
			dropErr = err
		})
	})
	if err != nil {
		return err
	}
	if dropErr != nil {
		return fmt.Errorf("failed to drop table %s: %w", table.Name, dropErr)
	}
	p.logger.Debug("dropped table", slog.String("table", table.Name))
	return nil
}

// Clear drops the tables of the bound model and of every entity reachable
// through its child-type links.
func (p *Proxy) Clear(ctx context.Context) error {
	model := p.Model()
	if model == nil {
		return errNoModel
	}

	var errs []error
	for _, e := range p.chain(model) {
		if err := p.DropTable(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// chain returns the entity followed by its child types, each once.
func (p *Proxy) chain(e *core.Entity) []*core.Entity {
	visited := make(map[string]bool)
	var out []*core.Entity
	for e != nil && !visited[e.Name] {
		visited[e.Name] = true
		out = append(out, e)
		if e.ChildType == "" {
			break
		}
		next, ok := p.schema.Entity(e.ChildType)
		if !ok {
			p.logger.Warn("unknown child type", slog.String("entity", e.Name), slog.String("child_type", e.ChildType))
			break
		}
		e = next
	}
	return out
}

// Close forgets every table descriptor and releases a shared connection.
func (p *Proxy) Close() error {
	p.catalog.Reset()
	if p.release != nil {
		release := p.release
		p.release = nil
		return release()
	}
	return nil
}

var errNoModel = fmt.Errorf("%w: no model bound", core.ErrSchema)
