// Package cli provides the command-line interface for askdata.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/askdata/internal/cli/commands"
	"github.com/leapstack-labs/askdata/internal/cli/config"
	"github.com/leapstack-labs/askdata/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// Command group IDs, in help order.
const (
	GroupData      = "data"
	GroupQuestions = "questions"
	GroupTools     = "tools"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "askdata",
		Short: "askdata - Ask questions about your data",
		Long: `askdata is a client for a natural-language data analysis service.

Upload CSV or JSON datasets, ask questions in plain English, and get back
tables, charts and the analysis code that produced them. Use it from the
terminal or start the local web UI with 'askdata ui'.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			// Store config, logger and renderer in context
			ctx = context.WithValue(ctx, configKey{}, cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), newLogger(cmd, cfg.Verbose))

			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./askdata.yaml)")
	rootCmd.PersistentFlags().String("backend-url", "", fmt.Sprintf("Analytics service address (default: %s)", config.DefaultBackendURL))
	rootCmd.PersistentFlags().Duration("timeout", 0, fmt.Sprintf("Request timeout (default: %s)", config.DefaultTimeout))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupData, Title: "Datasets:"},
		&cobra.Group{ID: GroupQuestions, Title: "Questions:"},
		&cobra.Group{ID: GroupTools, Title: "Tools:"},
	)
	addGroup(rootCmd, GroupData,
		commands.NewDatasetsCommand(),
		commands.NewUploadCommand(),
	)
	addGroup(rootCmd, GroupQuestions,
		commands.NewAskCommand(),
		commands.NewQueryCommand(),
		commands.NewHistoryCommand(),
	)
	addGroup(rootCmd, GroupTools,
		commands.NewUICommand(),
		commands.NewDoctorCommand(),
		commands.NewVersionCommand(commands.BuildInfo{Version: Version, Commit: GitCommit, Date: BuildDate}),
	)
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func addGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

// newLogger logs to stderr at debug level when verbose, warnings otherwise.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which cancels long-running
// commands such as ui, ask and upload --watch.
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return config.Default()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for askdata.

To load completions:

Bash:
  $ source <(askdata completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ askdata completion bash > /etc/bash_completion.d/askdata
  # macOS:
  $ askdata completion bash > $(brew --prefix)/etc/bash_completion.d/askdata

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ askdata completion zsh > "${fpath[1]}/_askdata"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ askdata completion fish | source

  # To load completions for each session, execute once:
  $ askdata completion fish > ~/.config/fish/completions/askdata.fish

PowerShell:
  PS> askdata completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> askdata completion powershell > askdata.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
