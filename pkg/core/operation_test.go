package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"create", ActionCreate},
		{"READ", ActionRead},
		{"update", ActionUpdate},
		{"destroy", ActionDestroy},
		{"delete", ActionDestroy},
		{"erase", ActionDestroy},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAction("upsert")
	assert.Error(t, err)
}

func TestDirection_Normalize(t *testing.T) {
	assert.Equal(t, Descending, Direction("desc").Normalize())
	assert.Equal(t, Ascending, Direction("asc").Normalize())
	assert.Equal(t, Ascending, Direction("").Normalize())
	assert.Equal(t, Ascending, Direction("down").Normalize())
}

func TestNode_ParentProperty(t *testing.T) {
	assert.Equal(t, "parentId", (&Node{}).ParentProperty())
	assert.Equal(t, "folder", (&Node{ParentIDProperty: "folder"}).ParentProperty())
}

func TestBatchError(t *testing.T) {
	stmtErr := &StatementError{SQL: "INSERT", Err: errors.New("constraint failed")}
	err := &BatchError{Failures: []RecordError{
		{ID: "Task-2", Err: stmtErr},
		{ID: "Task-3", Err: &TableCreationError{Table: "Task", Err: errors.New("disk full")}},
	}}

	assert.Contains(t, err.Error(), "2 record(s) failed")

	var target *StatementError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "INSERT", target.SQL)

	var tableErr *TableCreationError
	assert.ErrorAs(t, err, &tableErr)

	failure, ok := err.Failed("Task-2")
	require.True(t, ok)
	assert.Same(t, stmtErr, failure)

	_, ok = err.Failed("Task-1")
	assert.False(t, ok)
}

func TestBackendConfig_Identifier(t *testing.T) {
	tests := []struct {
		name string
		cfg  BackendConfig
		want string
	}{
		{"path", BackendConfig{Type: "sqlite", Path: "app.db"}, "sqlite:app.db"},
		{"database only", BackendConfig{Type: "sqlite", Database: "app"}, "sqlite:app"},
		{"server", BackendConfig{Type: "postgres", Host: "db", Port: 5432, Database: "app"}, "postgres://db:5432/app"},
		{"server without port", BackendConfig{Type: "mysql", Host: "db", Database: "app"}, "mysql://db/app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Identifier()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := BackendConfig{Type: "sqlite"}.Identifier()
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
