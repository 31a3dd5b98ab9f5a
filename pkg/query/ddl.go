package query

import (
	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/schema"
)

// CreateTable builds the statements creating a table if it does not exist.
// Dialects backing keys with sequences create the sequence first.
func CreateTable(d *dialect.Dialect, t *schema.Table) []Statement {
	var stmts []Statement
	if seq, ok := sequence(d, t); ok {
		stmts = append(stmts, Statement{SQL: "CREATE SEQUENCE IF NOT EXISTS " + seq})
	}
	return append(stmts, Statement{SQL: "CREATE TABLE IF NOT EXISTS " + t.Name + " (" + t.Schema + ")"})
}

// DropTable builds the statements dropping a table if it exists.
func DropTable(d *dialect.Dialect, t *schema.Table) []Statement {
	stmts := []Statement{{SQL: "DROP TABLE IF EXISTS " + t.Name}}
	if seq, ok := sequence(d, t); ok {
		stmts = append(stmts, Statement{SQL: "DROP SEQUENCE IF EXISTS " + seq})
	}
	return stmts
}

func sequence(d *dialect.Dialect, t *schema.Table) (string, bool) {
	if !d.UsesSequences() || t.Unique() {
		return "", false
	}
	return d.SequenceName(t.Name, t.IDColumn), true
}
