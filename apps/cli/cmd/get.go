package cmd

import (
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hittest/packages/assertions"
	"github.com/abdul-hamid-achik/hittest/packages/http"
	"github.com/abdul-hamid-achik/hittest/packages/output"
)

type getFlags struct {
	headers []string
	expects []string
	status  string
	follow  bool
}

func newGetCmd(global *globalFlags) *cobra.Command {
	flags := &getFlags{}

	getCmd := &cobra.Command{
		Use:   "get <dir> <path>",
		Short: "Serve a directory in-process and GET a path from it",
		Long: `Serve <dir> with a static file handler and GET <path> from it without
opening a socket. The response is printed and checked against --status and
every --expect assertion.

Examples:
  hittest get ./public /index.html
  hittest get ./public /data.json --expect "body.items length 3"
  hittest get ./public /missing --status 404
  hittest get ./public /data.json --expect "header Content-Type contains json" -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, global, flags, args[0], args[1])
		},
	}

	getCmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	getCmd.Flags().StringArrayVarP(&flags.expects, "expect", "e", nil, "Assertion such as 'status == 200' or 'body.id exists' (repeatable)")
	getCmd.Flags().StringVar(&flags.status, "status", "", "Expected status: a code, a status line, a glob like '4*' or '*' for any")
	getCmd.Flags().BoolVar(&flags.follow, "follow", false, "Follow redirects")

	return getCmd
}

func runGet(cmd *cobra.Command, global *globalFlags, flags *getFlags, dir, path string) error {
	cfg, err := global.settings(cmd)
	if err != nil {
		return err
	}
	formatter, err := global.formatter(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}
	if !info.IsDir() {
		return &exitError{code: ExitUsageError, err: fmt.Errorf("%s is not a directory", dir)}
	}

	checks := make([]*assertions.Assertion, 0, len(flags.expects))
	for _, expr := range flags.expects {
		a, err := assertions.ParseAssertion(expr)
		if err != nil {
			return &exitError{code: ExitUsageError, err: err}
		}
		checks = append(checks, a)
	}

	opts := []http.RequestOption{}
	for _, h := range flags.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return &exitError{code: ExitUsageError, err: fmt.Errorf("expected --header 'Name: value', got %q", h)}
		}
		opts = append(opts, http.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	if flags.status != "" {
		opts = append(opts, http.WithStatus(http.StatusLine(flags.status)))
	}

	logger := global.logger(cfg)
	defer func() { _ = logger.Sync() }()

	appOpts := append(http.OptionsFromConfig(cfg), http.WithLogger(logger))
	if cmd.Flags().Changed("follow") {
		appOpts = append(appOpts, http.WithFollowRedirects(flags.follow))
	}
	app := http.NewApp(stdhttp.FileServer(stdhttp.Dir(dir)), appOpts...)

	resp, err := app.Get(path, opts...)
	exchange := &output.Exchange{Method: string(http.MethodGet), URL: path, Response: resp, Err: err}
	if resp != nil {
		exchange.URL = resp.URL()
		exchange.Assertions = assertions.EvaluateAllWithBaseDir(resp, checks, dir)
	}
	formatter.FormatExchange(exchange)

	if exchange.Passed() {
		return nil
	}
	var appErr *http.AppError
	if err != nil && !errors.As(err, &appErr) {
		return &exitError{code: ExitUsageError, err: err}
	}
	return &exitError{code: ExitAssertionFailure}
}
