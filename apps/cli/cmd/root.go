package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hittest/packages/core/config"
	"github.com/abdul-hamid-achik/hittest/packages/logging"
	"github.com/abdul-hamid-achik/hittest/packages/output"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	output     string
	logLevel   string
	verbose    bool
	noColor    bool
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "hittest",
		Short: "Drive an HTTP handler without a network.",
		Long: `hittest builds requests the way a browser would (query strings, form
and multipart bodies, JSON, cookies) and serves them to an in-process
handler, without opening sockets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", getEnvString("HITTEST_CONFIG", ""), "Path to config file (env: HITTEST_CONFIG)")
	pf.StringVarP(&flags.output, "output", "o", getEnvString("HITTEST_OUTPUT", "console"), "Output format: console, json (env: HITTEST_OUTPUT)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: HITTEST_LOG_LEVEL)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Show request and response headers")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output (env: HITTEST_NO_COLOR)")

	rootCmd.AddCommand(newEncodeCmd(flags))
	rootCmd.AddCommand(newGetCmd(flags))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitUsageError)
	}
}

// settings merges defaults, the config file, HITTEST_* variables and flags,
// later sources winning.
func (g *globalFlags) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, &exitError{code: ExitConfigError, err: err}
	}
	cfg = cfg.Merge(config.FromEnv())

	overrides := &config.Config{LogLevel: g.logLevel}
	if cmd.Flags().Changed("verbose") {
		overrides.Verbose = config.BoolPtr(g.verbose)
	}
	if cmd.Flags().Changed("no-color") {
		overrides.NoColor = config.BoolPtr(g.noColor)
	}
	return cfg.Merge(overrides), nil
}

func (g *globalFlags) formatter(cfg *config.Config, w io.Writer) (output.Formatter, error) {
	switch g.output {
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	}
	return nil, &exitError{code: ExitUsageError, err: fmt.Errorf("unknown output format %q", g.output)}
}

func (g *globalFlags) logger(cfg *config.Config) *zap.Logger {
	return logging.NewOrNop(logging.Config{
		Level:       cfg.LogLevel,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
