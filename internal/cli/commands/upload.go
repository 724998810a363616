package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leapstack-labs/askdata/internal/cli/output"
	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/upload"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/spf13/cobra"
)

// UploadOptions holds options for the upload command.
type UploadOptions struct {
	Watch string
}

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	opts := &UploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Upload CSV or JSON datasets",
		Long: `Upload one or more files to the analytics service.

With --watch, keep running and upload every .csv or .json file that
appears in the folder until interrupted.`,
		Example: `  # Upload a dataset
  askdata upload sales.csv

  # Upload several and print the registered datasets as JSON
  askdata upload q1.csv q2.json -o json

  # Upload whatever lands in ./inbox
  askdata upload --watch ./inbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Watch, "watch", "", "Folder to watch for new files (default: upload.watch_dir)")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string, opts *UploadOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	watch := opts.Watch
	if watch == "" && len(args) == 0 {
		watch = cmdCtx.Cfg.Upload.WatchDir
	}
	if watch == "" && len(args) == 0 {
		return errors.New("no files to upload: pass one or more files or --watch DIR")
	}

	ws := cmdCtx.NewWorkspace()
	uploaded := make([]output.DatasetOutput, 0, len(args))
	for _, path := range args {
		ds, err := uploadPath(cmd.Context(), ws, r, path)
		if err != nil {
			return err
		}
		uploaded = append(uploaded, output.NewDatasetOutput(*ds, false))
		if !r.Structured() {
			reportUpload(r, *ds)
		}
	}

	if watch == "" {
		if r.Structured() {
			return r.Encode(uploaded)
		}
		return nil
	}
	return watchFolder(cmd.Context(), cmdCtx, ws, watch)
}

// uploadPath sends one file through the workspace's upload zone as a pick.
func uploadPath(ctx context.Context, ws *workspace.Workspace, r *output.Renderer, path string) (*core.Dataset, error) {
	file, closeFile, err := client.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFile() }()

	if !ws.Upload.Accepts(file.Name) && !r.Structured() {
		r.Warning(fmt.Sprintf("%s is not a CSV or JSON file; uploading anyway", file.Name))
	}

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner("Uploading and processing " + file.Name + "...")
		spinner.Start()
	}

	ds, err := ws.UploadFile(ctx, file, upload.SourcePick)
	if err != nil {
		if spinner != nil {
			spinner.Fail("Upload failed: " + file.Name)
		}
		return nil, friendlyError(err)
	}
	if spinner != nil {
		spinner.Stop()
	}
	return ds, nil
}

func reportUpload(r *output.Renderer, ds core.Dataset) {
	r.Success(fmt.Sprintf("Uploaded %s (%s rows, %d columns) as %s",
		ds.Name, r.Count(ds.RowCount), len(ds.Columns), ds.ID))
}

// watchFolder uploads files dropped into dir until ctx is cancelled.
func watchFolder(ctx context.Context, cmdCtx *CommandContext, ws *workspace.Workspace, dir string) error {
	r := cmdCtx.Renderer
	if !r.Structured() {
		r.Muted(fmt.Sprintf("Watching %s for .csv and .json files. Press Ctrl+C to stop.", dir))
	}

	var mu sync.Mutex
	w := upload.NewWatcher(dir, ws.Upload,
		upload.WithWatchLogger(cmdCtx.Logger.With("component", "watcher")),
		upload.WithResultHandler(func(res upload.DropResult) {
			mu.Lock()
			defer mu.Unlock()
			reportDrop(r, res)
		}),
	)
	return w.Run(ctx)
}

func reportDrop(r *output.Renderer, res upload.DropResult) {
	if res.Err != nil {
		msg := res.Err.Error()
		var um client.UserMessenger
		if errors.As(res.Err, &um) {
			msg = um.UserMessage()
		}
		r.Error(fmt.Sprintf("%s: %s", res.Path, msg))
		return
	}
	if r.Structured() {
		_ = r.Encode(output.NewDatasetOutput(*res.Dataset, true))
		return
	}
	reportUpload(r, *res.Dataset)
}
