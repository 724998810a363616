package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askdata/internal/cli/config"
	"github.com/leapstack-labs/askdata/internal/cli/output"
	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *client.Client
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a backend client and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutClient(cmd)

	c, err := client.New(cmdCtx.Cfg.BackendURL,
		client.WithTimeout(cmdCtx.Cfg.Timeout),
		client.WithLogger(cmdCtx.Logger.With("component", "client")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	cmdCtx.Client = c
	return cmdCtx, nil
}

// NewCommandContextWithoutClient creates a CommandContext without a backend client.
// Useful for commands that never talk to the service.
func NewCommandContextWithoutClient(cmd *cobra.Command) *CommandContext {
	logger := config.GetLogger(cmd.Context())
	cfg := getConfig(logger)
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewWorkspace creates an interaction session over the command's client.
func (c *CommandContext) NewWorkspace() *workspace.Workspace {
	return workspace.New(c.Client, workspace.Options{
		Logger:       c.Logger,
		DiscardStale: c.Cfg.Query.DiscardStale,
	})
}

// Helper functions shared across commands

// getConfig returns the configuration loaded by the root command. Without it,
// defaults, askdata.yaml and ASKDATA_ variables are loaded here.
func getConfig(logger *slog.Logger) *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		logger.Warn("falling back to default configuration", "error", err)
		return config.Default()
	}
	return cfg
}

// friendlyError puts the user-facing notification of a transport failure in
// front of its detail.
func friendlyError(err error) error {
	var um client.UserMessenger
	if errors.As(err, &um) {
		return fmt.Errorf("%s (%w)", um.UserMessage(), err)
	}
	return err
}

// resolveDataset finds a dataset by exact id, then by name. Datasets are
// newest first, so the most recent upload wins a name clash.
func resolveDataset(datasets []core.Dataset, ref string) (core.Dataset, error) {
	for _, ds := range datasets {
		if ds.ID == ref {
			return ds, nil
		}
	}
	for _, ds := range datasets {
		if ds.Name == ref {
			return ds, nil
		}
	}
	for _, ds := range datasets {
		if strings.EqualFold(ds.Name, ref) {
			return ds, nil
		}
	}
	return core.Dataset{}, fmt.Errorf("dataset %q not found", ref)
}

// selectDataset bootstraps ws and makes ref active. An empty ref keeps the
// default selection.
func selectDataset(cmd *cobra.Command, ws *workspace.Workspace, ref string) (core.Dataset, error) {
	datasets := ws.Bootstrap(cmd.Context())
	if ref == "" {
		if active, ok := ws.Store.Active(); ok {
			return active, nil
		}
		return core.Dataset{}, workspace.ErrNoActiveDataset
	}

	ds, err := resolveDataset(datasets, ref)
	if err != nil {
		return core.Dataset{}, err
	}
	ws.Select(ds.ID)
	return ds, nil
}
