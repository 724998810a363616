package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/askdata/internal/cli/config"
	"github.com/leapstack-labs/askdata/internal/ui"
	"github.com/spf13/cobra"
)

// devSessionSecret signs session cookies when no secret is configured.
const devSessionSecret = "askdata-dev-secret-change-in-production" //nolint:gosec

// UIOptions holds options for the ui command.
type UIOptions struct {
	Port      int
	NoBrowser bool
	Watch     string
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the askdata web UI",
		Long: `Start a local web server with the interactive askdata workspace.

The UI provides:
- Drag-and-drop dataset upload
- Dataset list with column summary and preview
- Natural-language questions with suggested prompts
- Tables, charts and generated code for every result`,
		Example: `  # Start UI on default port
  askdata ui

  # Start on custom port
  askdata ui --port 3000

  # Start without auto-opening browser, uploading files dropped into ./inbox
  askdata ui --no-browser --watch ./inbox`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultUIPort))
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().StringVar(&opts.Watch, "watch", "", "Folder to watch for new datasets (default: upload.watch_dir)")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	// CLI flags override config file
	port := cfg.UI.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	if port == 0 {
		port = config.DefaultUIPort
	}

	autoOpen := cfg.UI.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := cfg.Upload.WatchDir
	if opts.Watch != "" {
		watch = opts.Watch
	}

	server, err := ui.NewServer(ui.Config{
		Service:       cmdCtx.Client,
		Port:          port,
		SessionSecret: sessionSecret(cfg),
		Logger:        cmdCtx.Logger,
		DiscardStale:  cfg.Query.DiscardStale,
		WatchDir:      watch,
	})
	if err != nil {
		return fmt.Errorf("failed to create UI server: %w", err)
	}

	if autoOpen {
		go openBrowser(server.URL())
	}

	r := cmdCtx.Renderer
	r.Println(fmt.Sprintf("Starting UI server on %s", server.URL()))
	r.Println(fmt.Sprintf("Backend: %s", cfg.BackendURL))
	if watch != "" {
		r.Println(fmt.Sprintf("Watching %s for new datasets", watch))
	}
	r.Muted("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// sessionSecret prefers the configured secret, then the environment, then the development default.
func sessionSecret(cfg *config.Config) string {
	if cfg.UI.SessionSecret != "" {
		return cfg.UI.SessionSecret
	}
	if secret := os.Getenv(config.EnvPrefix + "SESSION_SECRET"); secret != "" {
		return secret
	}
	return devSessionSecret
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
