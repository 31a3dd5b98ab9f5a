package commands

import (
	"fmt"

	"github.com/leapstack-labs/recordsql/pkg/dialect"
	"github.com/leapstack-labs/recordsql/pkg/query"
	"github.com/leapstack-labs/recordsql/pkg/schema"
	"github.com/spf13/cobra"
)

// TableOutput is the rendered description of one derived table.
type TableOutput struct {
	Entity string        `json:"entity" yaml:"entity"`
	Table  *schema.Table `json:"table" yaml:"table"`
	DDL    []string      `json:"ddl" yaml:"ddl"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show the tables derived from entity definitions",
		Long: `Derive the table of every configured entity for the target dialect
and print its columns and the DDL that creates it. No connection is opened.`,
		Args: cobra.NoArgs,
		RunE: runTables,
	}
	addEntityFlag(cmd)
	return cmd
}

func runTables(cmd *cobra.Command, _ []string) error {
	c, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	d, ok := dialect.Get(c.Cfg.Target.Type)
	if !ok {
		return fmt.Errorf("no SQL dialect for target type %q (available: %v)", c.Cfg.Target.Type, dialect.List())
	}
	catalog := schema.NewCatalog(schema.NewDeriver(d, c.Cfg.Proxy.UniqueIDStrategy))
	if c.Cfg.Proxy.Table != "" {
		if _, err := catalog.Override(c.Model, c.Cfg.Proxy.Table); err != nil {
			return err
		}
	}

	entities := c.Schema.Names()
	if only, _ := cmd.Flags().GetString("entity"); only != "" {
		entities = []string{c.Model.Name}
	}

	out := make([]TableOutput, 0, len(entities))
	for _, name := range entities {
		e, _ := c.Schema.Entity(name)
		t, err := catalog.Table(e)
		if err != nil {
			return fmt.Errorf("failed to derive table for %s: %w", name, err)
		}
		entry := TableOutput{Entity: name, Table: t}
		for _, stmt := range query.CreateTable(d, t) {
			entry.DDL = append(entry.DDL, stmt.SQL)
		}
		out = append(out, entry)
	}

	if c.Renderer.Format() == FormatJSON {
		return c.Renderer.JSON(out)
	}
	return c.Renderer.YAML(out)
}
