// Package commands implements the recordsql subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/recordsql/internal/config"
	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"github.com/leapstack-labs/recordsql/pkg/proxy"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Schema   *core.Schema
	Model    *core.Entity
	Renderer *Renderer
}

// NewCommandContext validates the loaded configuration and selects the
// entity named by the --entity flag.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := cfg.Schema()
	name, _ := cmd.Flags().GetString("entity")
	model, err := cfg.Model(s, name)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Schema:   s,
		Model:    model,
		Renderer: NewRenderer(cmd.OutOrStdout(), cfg.Output),
	}, nil
}

// OpenProxy connects to the configured target and binds the selected model.
// The returned cleanup function must be called (typically via defer).
func (c *CommandContext) OpenProxy(ctx context.Context) (*proxy.Proxy, func(), error) {
	conns := adapter.NewConnections(c.Logger)
	opts := c.Cfg.Proxy.ProxyOptions()
	opts.Logger = c.Logger

	p, err := proxy.Open(ctx, conns, c.Cfg.Target.Backend(), c.Schema, opts)
	if err != nil {
		_ = conns.Close()
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	cleanup := func() {
		if err := p.Close(); err != nil {
			c.Logger.Warn("failed to close proxy", slog.String("error", err.Error()))
		}
		_ = conns.Close()
	}

	if err := p.SetModel(c.Model); err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

// addEntityFlag registers the --entity flag shared by record commands.
func addEntityFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("entity", "e", "", "Entity to operate on (default: first configured entity)")
}

// run opens a proxy for cmd and executes op against the selected model.
func run(cmd *cobra.Command, build func(c *CommandContext) (*core.Operation, error)) error {
	c, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	op, err := build(c)
	if err != nil {
		return err
	}

	p, cleanup, err := c.OpenProxy(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := p.Execute(cmd.Context(), op)
	if err != nil {
		// Partial batches still report the rows that succeeded
		var batch *core.BatchError
		if errors.As(err, &batch) && len(rows) > 0 {
			_ = c.Renderer.Rows(rows)
		}
		return err
	}
	return c.Renderer.Rows(rows)
}
