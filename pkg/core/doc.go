// Package core defines the shared language of the recordsql system.
//
// This package contains:
//   - Model metadata (Entity, Field, Schema)
//   - Records and the operations issued against them (Record, Operation)
//   - Backend connection configuration (BackendConfig)
//   - The error taxonomy shared by every layer
//
// The Golden Rule: pkg/core imports ONLY stdlib and github.com/google/uuid.
// All other packages depend on core, not the reverse.
package core
