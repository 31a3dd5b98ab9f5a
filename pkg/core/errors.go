package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is returned when a required backend capability is missing.
	// It is fatal and never retried.
	ErrSchema = errors.New("backend capability missing")

	// ErrIdentifier is returned when an entity does not declare exactly one identifier field.
	ErrIdentifier = errors.New("entity must declare exactly one identifier field")

	// ErrUnknownEntity is returned when an entity name is not in the schema.
	ErrUnknownEntity = errors.New("unknown entity")
)

// TableCreationError reports that a table could not be created.
// Only operations on that table fail; creation is retried on next access.
type TableCreationError struct {
	Table string
	Err   error
}

func (e *TableCreationError) Error() string {
	return fmt.Sprintf("failed to create table %s: %v", e.Table, e.Err)
}

func (e *TableCreationError) Unwrap() error { return e.Err }

// StatementError reports that one SQL statement failed.
type StatementError struct {
	SQL string
	Err error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed: %v (sql: %s)", e.Err, e.SQL)
}

func (e *StatementError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid backend setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// RecordError ties a failure to the record that caused it.
type RecordError struct {
	ID  any
	Err error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %v: %v", e.ID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// BatchError collects the per-record failures of a write batch.
type BatchError struct {
	Failures []RecordError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d record(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes every record failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Failed returns the failure for a record id, if any.
func (e *BatchError) Failed(id any) (error, bool) {
	for _, f := range e.Failures {
		if f.ID == id {
			return f.Err, true
		}
	}
	return nil, false
}
