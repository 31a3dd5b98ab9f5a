package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create [field=value...]",
		Short: "Create records",
		Long: `Create one record from field=value arguments, or a batch of records
from a YAML file holding a list of field maps.`,
		Example: `  recordsql create -e Task title="write docs" done=false
  recordsql create -e Task --file tasks.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(c *CommandContext) (*core.Operation, error) {
				if file != "" && len(args) > 0 {
					return nil, fmt.Errorf("use either --file or field=value arguments")
				}
				var (
					records []*core.Record
					err     error
				)
				if file != "" {
					records, err = readRecordsFile(c.Model, file)
				} else {
					var data map[string]any
					data, err = parseAssignments(c.Model, args)
					records = []*core.Record{core.NewRecord(c.Model, data)}
				}
				if err != nil {
					return nil, err
				}
				return &core.Operation{Action: core.ActionCreate, Records: records}, nil
			})
		},
	}

	addEntityFlag(cmd)
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a list of records")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:     "update --id ID field=value...",
		Short:   "Update a record",
		Example: `  recordsql update -e Task --id 1 done=true`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(c *CommandContext) (*core.Operation, error) {
				r, err := recordByID(c.Model, id)
				if err != nil {
					return nil, err
				}
				if r.Data, err = parseAssignments(c.Model, args); err != nil {
					return nil, err
				}
				if f, _ := c.Model.IDField(); f.Name != "" {
					if _, ok := r.Data[f.Name]; ok {
						return nil, fmt.Errorf("the id field %s cannot be updated", f.Name)
					}
				}
				return &core.Operation{Action: core.ActionUpdate, Records: []*core.Record{r}}, nil
			})
		},
	}

	addEntityFlag(cmd)
	cmd.Flags().StringVar(&id, "id", "", "Id of the record to update")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// NewDestroyCommand creates the destroy command.
func NewDestroyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "destroy ID...",
		Short:   "Destroy records by id",
		Example: `  recordsql destroy -e Task 1 2 3`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(c *CommandContext) (*core.Operation, error) {
				op := &core.Operation{Action: core.ActionDestroy}
				for _, raw := range args {
					r, err := recordByID(c.Model, raw)
					if err != nil {
						return nil, err
					}
					op.Records = append(op.Records, r)
				}
				return op, nil
			})
		},
	}

	addEntityFlag(cmd)
	return cmd
}

// recordByID returns an empty record of e carrying the parsed id.
func recordByID(e *core.Entity, raw string) (*core.Record, error) {
	id, err := parseID(e, raw)
	if err != nil {
		return nil, err
	}
	return &core.Record{Entity: e, ID: id, Data: map[string]any{}}, nil
}

// readRecordsFile loads a YAML list of field maps as new records of e.
func readRecordsFile(e *core.Entity, path string) ([]*core.Record, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse records file %s: %w", path, err)
	}

	records := make([]*core.Record, 0, len(raw))
	for i, item := range raw {
		data, err := typedData(e, item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, core.NewRecord(e, data))
	}
	return records, nil
}
