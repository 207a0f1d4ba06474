package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/keyip-smiles/internal/config"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "smiles.yaml"

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries the loaded configuration through the command tree and
// builds the service stack on first use.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration

	once       sync.Once
	components *Components
	err        error
}

// Components bootstraps the service stack once per command run.
func (c *CLIContext) Components() (*Components, error) {
	c.once.Do(func() {
		c.components, c.err = Bootstrap(c.Config, c.Logger)
	})
	return c.components, c.err
}

// Close releases whatever Components opened.
func (c *CLIContext) Close() error {
	if c.components == nil {
		return nil
	}
	return c.components.Close()
}

// withTimeout bounds ctx by the --timeout flag.
func (c *CLIContext) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func newBaseCommand(use, short string, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./"+defaultConfigFile+" when present)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-command timeout")
	return cmd
}

// NewRootCommand creates the smilesctl command tree.
func NewRootCommand() *cobra.Command {
	cmd := newBaseCommand("smilesctl", "Parse SMILES, SMARTS and reaction SMILES", &RootOptions{})
	cmd.Long = "smilesctl parses SMILES and SMARTS strings into molecular graphs and reports\n" +
		"their formula, rings, stereo features and unresolved query features.\n" +
		"It can also serve the same operations over HTTP."
	cmd.AddCommand(
		NewParseCmd(),
		NewReactionCmd(),
		NewBatchCmd(),
		NewServeCmd(),
		NewWorkerCmd(),
		NewCacheCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// NewServerCommand creates the apiserver binary's root command, which runs
// the HTTP server directly.
func NewServerCommand() *cobra.Command {
	cmd := newBaseCommand("apiserver", "Run the SMILES parse API server", &RootOptions{})
	serve := NewServeCmd()
	cmd.Flags().AddFlagSet(serve.Flags())
	cmd.RunE = serve.RunE
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.InvalidParam(fmt.Sprintf("unsupported output format %q", opts.OutputFormat))
	}
	if opts.NoColor {
		color.NoColor = true
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(config.WithConfigPath(opts.ConfigPath))
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return config.Load(config.WithConfigPath(defaultConfigFile))
	}
	return config.Load()
}

// initLogger creates a logger for CLI usage.  Unless the configuration names
// other outputs, entries go to stderr so that stdout carries results only.
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = strings.ToLower(opts.LogLevel)
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	outputs := cfg.Log.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           cfg.Log.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLI context not initialized")
	}
	return cliCtx, nil
}

// Execute runs root and reports a failure on root's error stream.
func Execute(root *cobra.Command) error {
	if err := root.Execute(); err != nil {
		PrintError(root, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult writes data in the format selected by --output.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "text"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	switch format {
	case "json":
		return printJSON(cmd.OutOrStdout(), data)
	case "table":
		if tp, ok := data.(tableProvider); ok {
			renderTable(cmd.OutOrStdout(), tp.TableHeaders(), tp.TableRows())
			return nil
		}
	}
	return printText(cmd.OutOrStdout(), data)
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(w, v)
	case fmt.Stringer:
		fmt.Fprint(w, v.String())
	default:
		fmt.Fprintf(w, "%+v\n", v)
	}
	return nil
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// PrintError writes err to the error stream, with its code when it is an
// application error.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg := fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message)
		if appErr.Detail != "" {
			msg += " (" + appErr.Detail + ")"
		}
		if appErr.Cause != nil {
			msg += ": " + appErr.Cause.Error()
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), msg)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// PrintSuccess writes a confirmation line to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}
