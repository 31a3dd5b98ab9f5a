// Package main provides the recordsql command.
package main

import (
	"os"

	"github.com/leapstack-labs/recordsql/internal/cli"

	// Register backend adapters
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/recordsql/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
