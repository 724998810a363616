package commands

import (
	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Dataset string
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past queries for a dataset",
		Long: `Show the queries the service has stored for a dataset, oldest first,
with their results.`,
		Example: `  # History of the most recent dataset
  askdata history

  # Last 5 queries against sales.csv
  askdata history --dataset sales.csv --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "Dataset id or name (default: most recent)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Show only the most recent N queries")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ws := cmdCtx.NewWorkspace()
	ds, err := selectDataset(cmd, ws, opts.Dataset)
	if err != nil {
		return err
	}

	results, err := ws.History(cmd.Context())
	if err != nil {
		return friendlyError(err)
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[len(results)-opts.Limit:]
	}

	r := cmdCtx.Renderer
	if !r.Structured() {
		r.Header(1, "History: "+ds.Name)
	}
	return r.Results(render.BuildAll(results))
}
