package proxy

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leapstack-labs/recordsql/internal/testutil"
	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskEntity() *core.Entity {
	return &core.Entity{
		Name: "Task",
		Fields: []core.Field{
			{Name: "id", Type: core.FieldInt, Identifier: true},
			{Name: "title", Type: core.FieldString},
			{Name: "done", Type: core.FieldBool},
		},
	}
}

func treeSchema() (*core.Schema, *core.Entity, *core.Entity) {
	folder := &core.Entity{
		Name:      "Folder",
		IsNode:    true,
		ChildType: "File",
		Fields: []core.Field{
			{Name: "id", Type: core.FieldInt, Identifier: true},
			{Name: "name", Type: core.FieldString},
		},
	}
	file := &core.Entity{
		Name:   "File",
		IsNode: true,
		Fields: []core.Field{
			{Name: "id", Type: core.FieldInt, Identifier: true},
			{Name: "name", Type: core.FieldString},
			{Name: "parentId", Type: core.FieldString},
		},
	}
	return core.NewSchema(folder, file), folder, file
}

func newTestProxy(t *testing.T, model *core.Entity, s *core.Schema, cfg Config) (*Proxy, *testutil.FakeAdapter) {
	t.Helper()
	fake := testutil.NewFakeAdapter(nil)
	cfg.Logger = testutil.NewTestLogger(t)
	p, err := New(fake, s, cfg)
	require.NoError(t, err)
	require.NoError(t, p.SetModel(model))
	return p, fake
}

func createOp(e *core.Entity, data ...map[string]any) *core.Operation {
	op := &core.Operation{Action: core.ActionCreate}
	for _, d := range data {
		op.Records = append(op.Records, core.NewRecord(e, d))
	}
	return op
}

func TestNew_RequiresAdapter(t *testing.T) {
	_, err := New(nil, nil, Config{})
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestRun_NoModel(t *testing.T) {
	p, err := New(testutil.NewFakeAdapter(nil), nil, Config{})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), &core.Operation{Action: core.ActionRead})
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestTaskScenario(t *testing.T) {
	task := taskEntity()
	p, fake := newTestProxy(t, task, nil, Config{})
	ctx := context.Background()

	rows, err := p.Execute(ctx, createOp(task, map[string]any{"title": "x", "done": true}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.Row{"clientId": "Task-1", "id": int64(1)}, rows[0])

	_, err = p.Execute(ctx, &core.Operation{
		Action:  core.ActionRead,
		Filters: []core.Filter{{Property: "done", Value: true}},
		Sorters: []core.Sorter{{Property: "title", Direction: core.Ascending}},
	})
	require.NoError(t, err)

	stmts := fake.Statements()
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS Task (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT, done NUMERIC)", stmts[0].SQL)
	assert.Equal(t, "INSERT INTO Task (title, done) VALUES (?, ?)", stmts[1].SQL)
	assert.Equal(t, []any{"x", true}, stmts[1].Args)
	assert.Equal(t, "SELECT * FROM Task WHERE done = 'true' ORDER BY title ASC", stmts[2].SQL)
}

func TestRead_ReturnsRows(t *testing.T) {
	p, fake := newTestProxy(t, taskEntity(), nil, Config{})
	want := []core.Row{{"id": int64(7), "title": "x"}}
	fake.SetRows("SELECT * FROM Task", want)

	rows, err := p.Execute(context.Background(), &core.Operation{
		Action:  core.ActionRead,
		ID:      7,
		Filters: []core.Filter{{Property: "title", Value: "ignored"}},
	})
	require.NoError(t, err)
	assert.Equal(t, want, rows)
	assert.Contains(t, fake.Executed(), "SELECT * FROM Task WHERE id = 7")
}

func TestRead_StatementError(t *testing.T) {
	p, fake := newTestProxy(t, taskEntity(), nil, Config{})
	fake.SetRows("SELECT", []core.Row{{"id": 1}})
	fake.FailOn("SELECT", assert.AnError)

	rows, err := p.Execute(context.Background(), &core.Operation{Action: core.ActionRead})

	var stmtErr *core.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "SELECT * FROM Task", stmtErr.SQL)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, rows)
}

func TestRun_LogsStatementsAndFailures(t *testing.T) {
	logger, logs := testutil.NewRecordingLogger(t)
	fake := testutil.NewFakeAdapter(nil)
	p, err := New(fake, nil, Config{Logger: logger})
	require.NoError(t, err)
	require.NoError(t, p.SetModel(taskEntity()))
	fake.FailOn("SELECT", assert.AnError)

	_, err = p.Execute(context.Background(), &core.Operation{Action: core.ActionRead})
	require.Error(t, err)

	assert.Len(t, logs.Lines("level=DEBUG", "executed statement", "CREATE TABLE IF NOT EXISTS Task"), 1)
	assert.Len(t, logs.Lines("level=DEBUG", "created table", "table=Task"), 1)
	assert.Len(t, logs.Lines("level=ERROR", "operation failed", "action=read"), 1)
}

func TestTableCreatedOnce(t *testing.T) {
	task := taskEntity()
	p, fake := newTestProxy(t, task, nil, Config{})
	ctx := context.Background()

	for range 3 {
		_, err := p.Execute(ctx, &core.Operation{Action: core.ActionRead})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.Count("CREATE TABLE"))

	fake.Reset()
	_, err := p.Execute(ctx, createOp(task, map[string]any{"title": "a"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"INSERT INTO Task (title) VALUES (?)"}, fake.Executed())
	table, err := p.Table(nil)
	require.NoError(t, err)
	assert.True(t, table.Exists())
}

func TestTableCreationFailure_Read(t *testing.T) {
	p, fake := newTestProxy(t, taskEntity(), nil, Config{})
	ctx := context.Background()
	fake.FailOn("CREATE TABLE", assert.AnError)

	_, err := p.Execute(ctx, &core.Operation{Action: core.ActionRead})

	var tableErr *core.TableCreationError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "Task", tableErr.Table)
	assert.Zero(t, fake.Count("SELECT"), "select is skipped when its table cannot be created")

	table, err := p.Table(nil)
	require.NoError(t, err)
	assert.False(t, table.Exists())

	fake.ClearFailures()
	_, err = p.Execute(ctx, &core.Operation{Action: core.ActionRead})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Count("CREATE TABLE"), "creation is retried on next access")
	assert.True(t, table.Exists())
}

func TestTableCreationFailure_Write(t *testing.T) {
	task := taskEntity()
	p, fake := newTestProxy(t, task, nil, Config{})
	fake.FailOn("CREATE TABLE", assert.AnError)

	op := createOp(task, map[string]any{"title": "a"}, map[string]any{"title": "b"})
	rows, err := p.Execute(context.Background(), op)

	var batchErr *core.BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Failures, 2)
	for _, f := range batchErr.Failures {
		var tableErr *core.TableCreationError
		assert.ErrorAs(t, f.Err, &tableErr)
	}
	assert.Empty(t, rows)
	assert.Zero(t, fake.Count("INSERT"))
}

func TestWrite_PartialFailure(t *testing.T) {
	task := taskEntity()
	p, fake := newTestProxy(t, task, nil, Config{})
	fake.FailWhen(func(s query.Statement) bool {
		return strings.HasPrefix(s.SQL, "INSERT") && len(s.Args) > 0 && s.Args[0] == "bad"
	}, assert.AnError)

	op := createOp(task,
		map[string]any{"title": "a"},
		map[string]any{"title": "bad"},
		map[string]any{"title": "c"},
		map[string]any{"title": "d"},
	)
	badID := op.Records[1].ID

	var calls atomic.Int32
	var gotRows []core.Row
	var gotErr error
	p.Run(context.Background(), op, func(rows []core.Row, err error) {
		calls.Add(1)
		gotRows, gotErr = rows, err
	})

	assert.Equal(t, int32(1), calls.Load(), "completion fires exactly once")
	assert.Len(t, gotRows, 3)

	var batchErr *core.BatchError
	require.ErrorAs(t, gotErr, &batchErr)
	require.Len(t, batchErr.Failures, 1)
	assert.Equal(t, badID, batchErr.Failures[0].ID)

	failure, ok := batchErr.Failed(badID)
	require.True(t, ok)
	var stmtErr *core.StatementError
	assert.ErrorAs(t, failure, &stmtErr)
	assert.ErrorIs(t, gotErr, assert.AnError)

	for i, row := range gotRows {
		assert.NotEqual(t, badID, row["clientId"])
		assert.NotNil(t, row["id"], "row %d carries the assigned id", i)
	}
	assert.Equal(t, 1, fake.Parallelized)
}

func TestWrite_RowsInRecordOrder(t *testing.T) {
	task := taskEntity()
	p, _ := newTestProxy(t, task, nil, Config{})

	op := createOp(task, map[string]any{"title": "a"}, map[string]any{"title": "b"}, map[string]any{"title": "c"})
	rows, err := p.Execute(context.Background(), op)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, r := range op.Records {
		assert.Equal(t, r.ID, rows[i]["clientId"])
	}
}

func TestWrite_EmptyBatch(t *testing.T) {
	p, fake := newTestProxy(t, taskEntity(), nil, Config{})

	rows, err := p.Execute(context.Background(), &core.Operation{Action: core.ActionCreate})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, fake.Executed())
}

func TestWrite_UpdateAndDestroy(t *testing.T) {
	task := taskEntity()
	p, fake := newTestProxy(t, task, nil, Config{})
	ctx := context.Background()

	update := &core.Operation{Action: core.ActionUpdate, Records: []*core.Record{
		core.NewRecord(task, map[string]any{"id": 4, "title": "y"}),
		core.NewRecord(task, map[string]any{"id": 5}),
	}}
	rows, err := p.Execute(ctx, update)

	var batchErr *core.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.ErrorIs(t, err, query.ErrNothingToUpdate)
	require.Len(t, rows, 1)
	assert.Equal(t, core.Row{"clientId": 4}, rows[0], "updates never carry a new id")

	destroy := &core.Operation{Action: core.ActionDestroy, Records: []*core.Record{
		core.NewRecord(task, map[string]any{"id": 4}),
	}}
	rows, err = p.Execute(ctx, destroy)
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"clientId": 4}}, rows)
	assert.Contains(t, fake.Executed(), "DELETE FROM Task WHERE id = ?")
}

func TestWrite_ExternalUnique(t *testing.T) {
	task := taskEntity()
	task.Identifier = core.IdentifierUUID
	task.Fields[0].Type = core.FieldString
	p, fake := newTestProxy(t, task, nil, Config{})

	op := createOp(task, map[string]any{"title": "x"})
	rows, err := p.Execute(context.Background(), op)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, core.Row{"clientId": op.Records[0].ID}, rows[0], "unique ids are never reassigned")

	stmts := fake.Statements()
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS Task (id TEXT PRIMARY KEY, title TEXT, done NUMERIC)", stmts[0].SQL)
	assert.Equal(t, []any{op.Records[0].ID, "x"}, stmts[1].Args)
}

func TestWrite_HeterogeneousBatch(t *testing.T) {
	s, folder, file := treeSchema()
	p, fake := newTestProxy(t, folder, s, Config{})

	op := &core.Operation{Action: core.ActionCreate, Records: []*core.Record{
		core.NewRecord(folder, map[string]any{"name": "docs"}),
		core.NewRecord(file, map[string]any{"name": "a.txt", "parentId": "Folder-1"}),
		core.NewRecord(file, map[string]any{"name": "b.txt", "parentId": "Folder-1"}),
	}}
	rows, err := p.Execute(context.Background(), op)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	assert.Equal(t, 1, fake.Count("CREATE TABLE IF NOT EXISTS Folder"))
	assert.Equal(t, 1, fake.Count("CREATE TABLE IF NOT EXISTS File"))
	assert.Equal(t, 1, fake.Count("INSERT INTO Folder"))
	assert.Equal(t, 2, fake.Count("INSERT INTO File"))
	assert.Equal(t, 1, fake.Serialized, "all tables are created in one serialized context")
}

func TestRead_TreeChildren(t *testing.T) {
	s, folder, _ := treeSchema()
	p, fake := newTestProxy(t, folder, s, Config{})

	_, err := p.Execute(context.Background(), &core.Operation{
		Action: core.ActionRead,
		ID:     "Folder-1",
		Node:   &core.Node{ID: "Folder-1", ChildType: "File"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS File (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, parentId TEXT)",
		"SELECT * FROM File WHERE parentId = 'Folder-1'",
	}, fake.Executed())

	_, err = p.Execute(context.Background(), &core.Operation{
		Action: core.ActionRead,
		Node:   &core.Node{ID: 1, ChildType: "Missing"},
	})
	assert.ErrorIs(t, err, core.ErrUnknownEntity)
}

func TestRead_TreeChildrenDefaultToModelChildType(t *testing.T) {
	s, folder, file := treeSchema()
	p, fake := newTestProxy(t, folder, s, Config{})

	_, err := p.Execute(context.Background(), &core.Operation{
		Action: core.ActionRead,
		Node:   &core.Node{ID: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS File (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, parentId TEXT)",
		"SELECT * FROM File WHERE parentId = '3'",
	}, fake.Executed())

	// A node without child type reads children from its own table
	p, fake = newTestProxy(t, file, s, Config{})
	_, err = p.Execute(context.Background(), &core.Operation{
		Action: core.ActionRead,
		Node:   &core.Node{ID: 3},
	})
	require.NoError(t, err)
	assert.Contains(t, fake.Executed(), "SELECT * FROM File WHERE parentId = '3'")
}

func TestExecute_CompletedOutcomeWinsOverCancelledContext(t *testing.T) {
	task := taskEntity()
	p, _ := newTestProxy(t, task, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range 50 {
		rows, err := p.Execute(ctx, createOp(task, map[string]any{"title": "a"}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
	}
}

func TestDropTable(t *testing.T) {
	p, fake := newTestProxy(t, taskEntity(), nil, Config{})
	ctx := context.Background()

	_, err := p.Execute(ctx, &core.Operation{Action: core.ActionRead})
	require.NoError(t, err)
	table, err := p.Table(nil)
	require.NoError(t, err)
	require.True(t, table.Exists())

	fake.FailOn("DROP TABLE", assert.AnError)
	err = p.DropTable(ctx, nil)
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, table.Exists(), "a failed drop still marks the table absent")

	fake.ClearFailures()
	_, err = p.Execute(ctx, &core.Operation{Action: core.ActionRead})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Count("CREATE TABLE"))
}

func TestClear_FollowsChildTypes(t *testing.T) {
	a := &core.Entity{Name: "A", IsNode: true, ChildType: "B", Fields: []core.Field{{Name: "id", Identifier: true}}}
	b := &core.Entity{Name: "B", IsNode: true, ChildType: "C", Fields: []core.Field{{Name: "id", Identifier: true}}}
	c := &core.Entity{Name: "C", IsNode: true, ChildType: "B", Fields: []core.Field{{Name: "id", Identifier: true}}}
	p, fake := newTestProxy(t, a, core.NewSchema(a, b, c), Config{})

	require.NoError(t, p.Clear(context.Background()))
	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS A",
		"DROP TABLE IF EXISTS B",
		"DROP TABLE IF EXISTS C",
	}, fake.Executed())
}

func TestClear_JoinsErrors(t *testing.T) {
	s, folder, _ := treeSchema()
	p, fake := newTestProxy(t, folder, s, Config{})
	fake.FailOn("DROP TABLE", assert.AnError)

	err := p.Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Folder")
	assert.Contains(t, err.Error(), "File")
	assert.Equal(t, 2, fake.Count("DROP TABLE"))
}

func TestSetModel(t *testing.T) {
	task := taskEntity()
	p, _ := newTestProxy(t, task, nil, Config{Table: "todo"})

	table, err := p.Table(nil)
	require.NoError(t, err)
	assert.Equal(t, "todo", table.Name)

	note := &core.Entity{Name: "Note", Fields: []core.Field{{Name: "id", Identifier: true}}}
	require.NoError(t, p.SetModel(note))
	_, cached := p.catalog.Cached("Task")
	assert.False(t, cached, "the previous model is evicted")

	table, err = p.Table(nil)
	require.NoError(t, err)
	assert.Equal(t, "todo", table.Name)

	err = p.SetModel(&core.Entity{Name: "Bad"})
	assert.ErrorIs(t, err, core.ErrIdentifier)
}

func TestSerializeFailure(t *testing.T) {
	task := taskEntity()
	p, fake := newTestProxy(t, task, nil, Config{})
	fake.SerializeErr = adapter.ErrNotConnected

	_, err := p.Execute(context.Background(), &core.Operation{Action: core.ActionRead})
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = p.Execute(context.Background(), createOp(task, map[string]any{"title": "a"}))
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.False(t, errors.As(err, new(*core.BatchError)))
}

func TestOpenAndClose(t *testing.T) {
	fake := testutil.NewFakeAdapter(nil)
	conns := adapter.NewConnections(nil)
	conns.Factory = func(core.BackendConfig, *slog.Logger) (adapter.Adapter, error) { return fake, nil }
	backend := core.BackendConfig{Type: "sqlite", Path: "tasks.db"}

	p, err := Open(context.Background(), conns, backend, nil, Config{})
	require.NoError(t, err)
	require.NoError(t, p.SetModel(taskEntity()))
	assert.Equal(t, 1, conns.Refs(backend))

	require.NoError(t, p.Close())
	assert.Equal(t, 0, conns.Refs(backend))
	assert.True(t, fake.Closed)
	_, cached := p.catalog.Cached("Task")
	assert.False(t, cached)
}
