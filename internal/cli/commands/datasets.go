package commands

import (
	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ls"},
		Short:   "List uploaded datasets",
		Long: `List the datasets the analytics service knows about, newest first.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown table
  - JSON/YAML: Machine-readable list`,
		Example: `  # List datasets
  askdata datasets

  # As JSON
  askdata datasets -o json

  # Show one dataset's columns and sample rows
  askdata datasets info sales.csv`,
		Args: cobra.NoArgs,
		RunE: runDatasets,
	}

	cmd.AddCommand(newDatasetInfoCommand())
	return cmd
}

func runDatasets(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	datasets, err := cmdCtx.Client.ListDatasets(cmd.Context())
	if err != nil {
		return friendlyError(err)
	}
	return cmdCtx.Renderer.Datasets(datasets, "")
}

func newDatasetInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id|name>",
		Short: "Show a dataset's columns and sample rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			datasets, err := cmdCtx.Client.ListDatasets(cmd.Context())
			if err != nil {
				return friendlyError(err)
			}
			ds, err := resolveDataset(datasets, args[0])
			if err != nil {
				return err
			}
			return cmdCtx.Renderer.DatasetInfo(ds)
		},
	}
}
