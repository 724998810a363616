package commands

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/askdata/internal/cli/output"
	querycontrol "github.com/leapstack-labs/askdata/internal/query"
	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Dataset     string
	ShowCode    bool
	NoSaveChart bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <question...>",
		Short: "Ask one question about a dataset",
		Long: `Ask a natural-language question about a dataset and print the result.

The service generates and runs analysis code for the question. Tables are
capped at 50 rows; charts are saved as images under charts_dir.`,
		Example: `  # Ask about the most recent dataset
  askdata query "average amount by region"

  # Ask about a dataset by name and show the generated code
  askdata query --dataset sales.csv --code "top 5 regions by revenue"

  # Machine-readable result
  askdata query -d 3f2a "count rows" -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "Dataset id or name (default: most recent)")
	cmd.Flags().BoolVar(&opts.ShowCode, "code", false, "Show the generated analysis code")
	cmd.Flags().BoolVar(&opts.NoSaveChart, "no-save-chart", false, "Don't write chart images to charts_dir")

	return cmd
}

func runQuery(cmd *cobra.Command, text string, opts *QueryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	ws := cmdCtx.NewWorkspace()
	if _, err := selectDataset(cmd, ws, opts.Dataset); err != nil {
		return err
	}

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner("Analyzing...")
		spinner.Start()
	}

	err = ws.Ask(cmd.Context(), text)
	if spinner != nil {
		spinner.Stop()
	}
	switch {
	case errors.Is(err, querycontrol.ErrEmptyQuery):
		return errors.New("question is empty")
	case err != nil:
		return friendlyError(err)
	}

	results := ws.Store.Results()
	if len(results) == 0 {
		// The result was discarded as stale; nothing to show.
		return nil
	}
	return showResult(cmdCtx, render.Build(results[0]), opts.ShowCode, !opts.NoSaveChart)
}

// showResult renders a result view, saving its chart first when asked.
func showResult(cmdCtx *CommandContext, v render.View, showCode, save bool) error {
	opts := output.ResultOptions{ShowCode: showCode}
	if save {
		path, err := saveChart(cmdCtx.Cfg.ChartsDir, v)
		if err != nil {
			cmdCtx.Renderer.Warning(err.Error())
		}
		opts.ChartPath = path
	}
	return cmdCtx.Renderer.Result(v, opts)
}

// askErrorMessage maps an Ask failure to a one-line notice.
func askErrorMessage(err error) string {
	switch {
	case errors.Is(err, workspace.ErrNoActiveDataset):
		return "Please upload or select a dataset first."
	case errors.Is(err, querycontrol.ErrBusy):
		return "A query is already running."
	default:
		return friendlyError(err).Error()
	}
}
