package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/spf13/cobra"
)

// ReadOptions holds options for the read command.
type ReadOptions struct {
	ID             string
	Filters        []string
	Sorters        []string
	Start          int
	Limit          int
	Parent         string
	ParentProperty string
	ChildType      string
}

// NewReadCommand creates the read command.
func NewReadCommand() *cobra.Command {
	opts := &ReadOptions{}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read records",
		Long: `Read records of an entity.

Filters use field=value for equality or field~value for substring matches.
Sorters use field or field:desc.`,
		Example: `  # Read every task
  recordsql read -e Task

  # Open tasks whose title contains "ship", newest first
  recordsql read -e Task --filter done=false --filter title~ship --sort id:desc

  # Children of folder 3
  recordsql read -e Folder --parent 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(c *CommandContext) (*core.Operation, error) {
				return opts.operation(c.Model)
			})
		},
	}

	addEntityFlag(cmd)
	cmd.Flags().StringVar(&opts.ID, "id", "", "Read a single record by id")
	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil, "Filter as field=value or field~value (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Sorters, "sort", "s", nil, "Sort as field[:asc|desc] (repeatable)")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "Index of the first record")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of records")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "Read the children of this node id")
	cmd.Flags().StringVar(&opts.ParentProperty, "parent-property", "", "Child property holding the parent id (default: parentId)")
	cmd.Flags().StringVar(&opts.ChildType, "child-type", "", "Entity the children are stored as")

	return cmd
}

// operation builds the read operation for e.
func (o *ReadOptions) operation(e *core.Entity) (*core.Operation, error) {
	op := &core.Operation{Action: core.ActionRead}

	if o.ID != "" {
		id, err := parseID(e, o.ID)
		if err != nil {
			return nil, err
		}
		op.ID = id
	}

	for _, raw := range o.Filters {
		f, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		op.Filters = append(op.Filters, f)
	}

	for _, raw := range o.Sorters {
		property, dir, _ := strings.Cut(raw, ":")
		if property == "" {
			return nil, fmt.Errorf("invalid sort %q", raw)
		}
		op.Sorters = append(op.Sorters, core.Sorter{Property: property, Direction: core.Direction(dir).Normalize()})
	}

	if o.Start < 0 || o.Limit < 0 {
		return nil, fmt.Errorf("start and limit must not be negative")
	}
	if o.Start > 0 && o.Limit == 0 {
		return nil, fmt.Errorf("--start requires --limit")
	}
	if o.Limit > 0 {
		op.Page = &core.Page{Start: o.Start, Limit: o.Limit}
	}

	if o.Parent != "" {
		op.Node = &core.Node{
			ID:               o.Parent,
			ParentIDProperty: o.ParentProperty,
			ChildType:        o.ChildType,
		}
	}

	return op, nil
}

// parseFilter parses field=value or field~value.
func parseFilter(raw string) (core.Filter, error) {
	i := strings.IndexAny(raw, "=~")
	if i <= 0 {
		return core.Filter{}, fmt.Errorf("invalid filter %q (expected field=value or field~value)", raw)
	}
	return core.Filter{
		Property: raw[:i],
		Value:    raw[i+1:],
		AnyMatch: raw[i] == '~',
	}, nil
}
