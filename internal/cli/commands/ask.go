package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/askdata/internal/cli/output"
	"github.com/leapstack-labs/askdata/internal/client"
	querycontrol "github.com/leapstack-labs/askdata/internal/query"
	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/leapstack-labs/askdata/internal/upload"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/spf13/cobra"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	Dataset     string
	Watch       string
	ShowCode    bool
	NoSaveChart bool
}

// NewAskCommand creates the interactive ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Start an interactive question session",
		Long: `Start an interactive session against the analytics service.

Type a question to analyze the active dataset. Lines starting with a dot
are commands:
  .datasets          List datasets
  .use <id|name>     Switch the active dataset
  .upload <path>     Upload a CSV or JSON file
  .info              Describe the active dataset
  .suggest [n]       List suggested prompts, or load prompt n
  .code              Show the generated code of the last result
  .history           Show the service's stored queries for the dataset
  .quit              Exit`,
		Example: `  # Start a session on the most recent dataset
  askdata ask

  # Start on a named dataset, uploading files dropped into ./inbox
  askdata ask --dataset sales.csv --watch ./inbox`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAsk(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "Dataset id or name to start with (default: most recent)")
	cmd.Flags().StringVar(&opts.Watch, "watch", "", "Folder to watch for new datasets (default: upload.watch_dir)")
	cmd.Flags().BoolVar(&opts.ShowCode, "code", false, "Show generated code with every result")
	cmd.Flags().BoolVar(&opts.NoSaveChart, "no-save-chart", false, "Don't write chart images to charts_dir")

	return cmd
}

func runAsk(cmd *cobra.Command, opts *AskOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ws := cmdCtx.NewWorkspace()
	if opts.Dataset != "" {
		if _, err := selectDataset(cmd, ws, opts.Dataset); err != nil {
			return err
		}
	} else {
		ws.Bootstrap(ctx)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptFor(ws),
		HistoryFile:     historyFile(),
		AutoComplete:    newAskCompleter(ws),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := newAskSession(cmdCtx, ws, rl)
	s.showCode = opts.ShowCode
	s.saveCharts = !opts.NoSaveChart

	watch := cmdCtx.Cfg.Upload.WatchDir
	if opts.Watch != "" {
		watch = opts.Watch
	}
	if watch != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.watch(watchCtx, watch)
	}

	return s.run(ctx)
}

// lineReader is the part of *readline.Instance the session loop uses.
type lineReader interface {
	Readline() (string, error)
	ReadlineWithDefault(def string) (string, error)
	SetPrompt(prompt string)
}

// askSession is one interactive loop over a workspace.
type askSession struct {
	cmdCtx     *CommandContext
	ws         *workspace.Workspace
	rl         lineReader
	showCode   bool
	saveCharts bool

	// pending pre-fills the next line, set by .suggest n and by a failed question
	pending string

	mu sync.Mutex
}

func newAskSession(cmdCtx *CommandContext, ws *workspace.Workspace, rl lineReader) *askSession {
	return &askSession{
		cmdCtx:     cmdCtx,
		ws:         ws,
		rl:         rl,
		saveCharts: true,
	}
}

func (s *askSession) run(ctx context.Context) error {
	r := s.cmdCtx.Renderer
	r.Println(fmt.Sprintf("askdata (backend: %s)", s.cmdCtx.Cfg.BackendURL))
	if active, ok := s.ws.Store.Active(); ok {
		r.Println(fmt.Sprintf("Active dataset: %s", active.Name))
	} else {
		r.Muted("No datasets yet. Use .upload <path> to add one.")
	}
	r.Println("Type .help for commands, .quit to exit")
	r.Println("")

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := s.readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.handleLine(ctx, line) {
			return nil
		}
		s.rl.SetPrompt(promptFor(s.ws))
	}
}

func (s *askSession) readLine() (string, error) {
	if s.pending != "" {
		def := s.pending
		s.pending = ""
		return s.rl.ReadlineWithDefault(def)
	}
	return s.rl.Readline()
}

// handleLine runs one input line and reports whether the session should end.
func (s *askSession) handleLine(ctx context.Context, line string) bool {
	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(ctx, line)
	}
	s.ask(ctx, line)
	return false
}

func (s *askSession) handleDotCommand(ctx context.Context, line string) bool {
	r := s.cmdCtx.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		s.printHelp()

	case ".datasets":
		s.report(r.Datasets(s.ws.Store.Datasets(), s.ws.Store.ActiveID()))

	case ".use":
		if arg == "" {
			r.Error("Usage: .use <id|name>")
			return false
		}
		ds, err := resolveDataset(s.ws.Store.Datasets(), arg)
		if err != nil {
			r.Error(err.Error())
			return false
		}
		s.ws.Select(ds.ID)
		r.Success("Using " + ds.Name)

	case ".upload":
		if arg == "" {
			r.Error("Usage: .upload <path>")
			return false
		}
		ds, err := uploadPath(ctx, s.ws, r, arg)
		if err != nil {
			r.Error(err.Error())
			return false
		}
		reportUpload(r, *ds)

	case ".info":
		active, ok := s.ws.Store.Active()
		if !ok {
			r.Error(askErrorMessage(workspace.ErrNoActiveDataset))
			return false
		}
		s.report(r.DatasetInfo(active))

	case ".suggest":
		s.suggest(arg)

	case ".code":
		results := s.ws.Store.Results()
		if len(results) == 0 {
			r.Muted("No queries yet.")
			return false
		}
		r.Code(results[0].GeneratedCode)

	case ".history":
		results, err := s.ws.History(ctx)
		if err != nil {
			r.Error(askErrorMessage(err))
			return false
		}
		s.report(r.Results(render.BuildAll(results)))

	case ".clear":
		if r.IsTTY() {
			r.Printf("\033[H\033[2J")
		}

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

// ask submits text against the active dataset and shows the newest result.
func (s *askSession) ask(ctx context.Context, text string) {
	r := s.cmdCtx.Renderer

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText {
		spinner = r.NewSpinner("Analyzing...")
		spinner.Start()
	}
	err := s.ws.Ask(ctx, text)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		if errors.Is(err, querycontrol.ErrEmptyQuery) {
			return
		}
		r.Error(askErrorMessage(err))
		var qErr *client.QueryTransportError
		if errors.As(err, &qErr) {
			s.pending = s.ws.Query.Text()
		}
		return
	}

	results := s.ws.Store.Results()
	if len(results) == 0 {
		return
	}
	s.report(showResult(s.cmdCtx, render.Build(results[0]), s.showCode, s.saveCharts))
}

func (s *askSession) suggest(arg string) {
	r := s.cmdCtx.Renderer
	if arg == "" {
		for i, p := range s.ws.Query.Suggestions() {
			r.Println(fmt.Sprintf("  %d. %s", i+1, p))
		}
		r.Muted("Use .suggest <n> to load one.")
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || !s.ws.Query.ApplySuggestion(n-1) {
		r.Error(fmt.Sprintf("No suggestion %q (type .suggest to list them)", arg))
		return
	}
	s.pending = s.ws.Query.Text()
}

// watch uploads files dropped into dir until ctx is cancelled.
func (s *askSession) watch(ctx context.Context, dir string) {
	r := s.cmdCtx.Renderer
	w := upload.NewWatcher(dir, s.ws.Upload,
		upload.WithWatchLogger(s.cmdCtx.Logger.With("component", "watcher")),
		upload.WithResultHandler(func(res upload.DropResult) {
			s.mu.Lock()
			defer s.mu.Unlock()
			reportDrop(r, res)
			s.rl.SetPrompt(promptFor(s.ws))
		}),
	)
	if err := w.Run(ctx); err != nil {
		r.Error(fmt.Sprintf("watching %s: %v", dir, err))
	}
}

func (s *askSession) report(err error) {
	if err != nil {
		s.cmdCtx.Renderer.Error(err.Error())
	}
}

func (s *askSession) printHelp() {
	r := s.cmdCtx.Renderer
	r.Println("Commands:")
	r.Println("  .datasets          List datasets")
	r.Println("  .use <id|name>     Switch the active dataset")
	r.Println("  .upload <path>     Upload a CSV or JSON file")
	r.Println("  .info              Describe the active dataset")
	r.Println("  .suggest [n]       List suggested prompts, or load prompt n")
	r.Println("  .code              Show the generated code of the last result")
	r.Println("  .history           Show stored queries for the active dataset")
	r.Println("  .clear             Clear the screen")
	r.Println("  .quit, .exit       Exit")
	r.Println("")
	r.Println("Anything else is asked as a question about the active dataset.")
}

func promptFor(ws *workspace.Workspace) string {
	if active, ok := ws.Store.Active(); ok {
		return fmt.Sprintf("askdata [%s]> ", active.Name)
	}
	return "askdata> "
}

// historyFile is the session history path, or "" when there is no cache directory.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "askdata")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "ask_history")
}

func newAskCompleter(ws *workspace.Workspace) *readline.PrefixCompleter {
	datasetNames := func(string) []string {
		datasets := ws.Store.Datasets()
		names := make([]string, 0, len(datasets))
		for _, ds := range datasets {
			names = append(names, ds.Name)
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".datasets"),
		readline.PcItem(".use", readline.PcItemDynamic(datasetNames)),
		readline.PcItem(".upload"),
		readline.PcItem(".info"),
		readline.PcItem(".suggest"),
		readline.PcItem(".code"),
		readline.PcItem(".history"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
