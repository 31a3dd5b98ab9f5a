package commands

import (
	"github.com/spf13/cobra"
)

// NewDropCommand creates the drop command.
func NewDropCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the table of an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			p, cleanup, err := c.OpenProxy(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.DropTable(cmd.Context(), nil); err != nil {
				return err
			}
			c.Renderer.Message("Dropped table of %s", c.Model.Name)
			return nil
		},
	}
	addEntityFlag(cmd)
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop the tables of an entity and its child types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			p, cleanup, err := c.OpenProxy(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.Clear(cmd.Context()); err != nil {
				return err
			}
			c.Renderer.Message("Cleared %s", c.Model.Name)
			return nil
		},
	}
	addEntityFlag(cmd)
	return cmd
}
