package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/recordsql/internal/testutil"
	"github.com/leapstack-labs/recordsql/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/sqlite"
)

const taskConfig = `
target:
  type: sqlite
  database: tasks.db
  params:
    busy_timeout: 5s
proxy:
  parallelism: 4
entities:
  - name: Task
    client_id_property: cid
    fields:
      - name: id
        type: int
        identifier: true
      - name: title
        type: string
      - name: done
        type: bool
      - name: draft
        persist: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		errSubstr string
	}{
		{name: "empty type", target: TargetConfig{}, errSubstr: "target type is required"},
		{name: "valid sqlite", target: TargetConfig{Type: "sqlite", Database: "x.db"}},
		{name: "valid duckdb uppercase", target: TargetConfig{Type: "DuckDB", Database: "x.duckdb"}},
		{name: "valid postgres", target: TargetConfig{Type: "postgres", Host: "localhost", Database: "app"}},
		{name: "unknown type", target: TargetConfig{Type: "oracle", Database: "app"}, errSubstr: "unknown adapter type"},
		{name: "missing database", target: TargetConfig{Type: "postgres", Host: "localhost"}, errSubstr: "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestTargetConfig_Backend(t *testing.T) {
	file := (&TargetConfig{Type: "SQLite", Database: "tasks.db"}).Backend()
	assert.Equal(t, "sqlite", file.Type)
	assert.Equal(t, "tasks.db", file.Path)
	assert.Empty(t, file.Database)

	network := (&TargetConfig{Type: "mysql", Database: "app", Host: "db", Port: 3306, User: "u"}).Backend()
	assert.Empty(t, network.Path)
	assert.Equal(t, "app", network.Database)
	assert.Equal(t, "u", network.Username)
}

func TestApplyTargetDefaults(t *testing.T) {
	tests := []struct {
		name   string
		target *TargetConfig
		want   TargetConfig
	}{
		{name: "empty", target: &TargetConfig{}, want: TargetConfig{Type: "sqlite", Database: DefaultDatabase}},
		{name: "postgres port", target: &TargetConfig{Type: "postgres"}, want: TargetConfig{Type: "postgres", Port: 5432}},
		{name: "mysql port", target: &TargetConfig{Type: "mysql"}, want: TargetConfig{Type: "mysql", Port: 3306}},
		{name: "explicit port kept", target: &TargetConfig{Type: "mysql", Port: 3307}, want: TargetConfig{Type: "mysql", Port: 3307}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ApplyTargetDefaults(tt.target)
			assert.Equal(t, tt.want, *tt.target)
		})
	}

	ApplyTargetDefaults(nil)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, taskConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, "tasks.db", cfg.Target.Database)
	assert.Equal(t, "5s", cfg.Target.Params["busy_timeout"])
	assert.Equal(t, 4, cfg.Proxy.Parallelism)
	assert.Equal(t, DefaultOutput, cfg.Output)
	require.Len(t, cfg.Entities, 1)
	require.NoError(t, cfg.Validate())

	task := cfg.Entities[0].Entity()
	assert.Equal(t, "cid", task.ClientIDProperty)
	id, err := task.IDField()
	require.NoError(t, err)
	assert.Equal(t, core.FieldInt, id.Type)

	draft, ok := task.Field("draft")
	require.True(t, ok)
	assert.True(t, draft.Transient)
	assert.Equal(t, core.FieldAuto, draft.Type)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, taskConfig)
	t.Setenv("RECORDSQL_PROXY_TABLE", "todo")
	t.Setenv("RECORDSQL_TARGET_DATABASE", "env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "")
	flags.Int("parallelism", 0, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--database", "flag.db", "--verbose"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "flag.db", cfg.Target.Database, "flags override env")
	assert.Equal(t, "todo", cfg.Proxy.Table, "env overrides file")
	assert.Equal(t, 4, cfg.Proxy.Parallelism, "unset flags keep file value")
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("RECORDSQL_TEST_PASSWORD", "s3cret")
	path := writeConfig(t, `
target:
  type: postgres
  host: localhost
  database: app
  password: ${RECORDSQL_TEST_PASSWORD}
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, 5432, cfg.Target.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		Target: &TargetConfig{Type: "sqlite", Database: "x.db"},
		Proxy:  ProxyConfig{Parallelism: -1},
		Entities: []EntityConfig{
			{Name: "Folder", IsNode: true, ChildType: "Missing", Fields: []FieldConfig{{Name: "id", Identifier: true}}},
			{Name: "NoID", Fields: []FieldConfig{{Name: "title"}}},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallelism")
	assert.Contains(t, err.Error(), "unknown child_type")
	assert.ErrorIs(t, err, core.ErrIdentifier)
}

func TestConfig_Model(t *testing.T) {
	cfg := &Config{Entities: []EntityConfig{
		{Name: "Task", Fields: []FieldConfig{{Name: "id", Identifier: true}}},
		{Name: "Note", Fields: []FieldConfig{{Name: "id", Identifier: true}}},
	}}
	s := cfg.Schema()

	e, err := cfg.Model(s, "")
	require.NoError(t, err)
	assert.Equal(t, "Task", e.Name)

	e, err = cfg.Model(s, "Note")
	require.NoError(t, err)
	assert.Equal(t, "Note", e.Name)

	_, err = cfg.Model(s, "Other")
	assert.ErrorIs(t, err, core.ErrUnknownEntity)

	_, err = (&Config{}).Model(core.NewSchema(), "")
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{Output: "json"}
	logger := testutil.NewTestLogger(t)
	ctx = WithLogger(WithConfig(ctx, cfg), logger)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, cfg, got)
	assert.Same(t, logger, GetLogger(ctx))
}
