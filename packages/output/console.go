package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hittest/packages/assertions"
	"github.com/abdul-hamid-achik/hittest/packages/http"
)

// Exchange is one served request, the assertions checked against its
// response and the error the request ended with, if any.
type Exchange struct {
	Method     string
	URL        string
	Response   *http.Response
	Assertions []*assertions.Result
	Err        error
}

// Passed reports whether the exchange completed and every assertion held.
func (x *Exchange) Passed() bool {
	return x.Err == nil && len(assertions.Failed(x.Assertions)) == 0
}

// Formatter renders exchanges and encoded bodies.
type Formatter interface {
	FormatExchange(x *Exchange)
	FormatEncoded(contentType string, body []byte)
	FormatError(err error)
	FormatHeader(version string)
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case map[string][]string:
		return fmt.Sprintf("{headers with %d entries}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

var _ Formatter = (*ConsoleFormatter)(nil)

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose adds request and response headers to the output.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatExchange(x *Exchange) {
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold(x.Method), x.URL)

	resp := x.Response
	if resp != nil {
		if f.verbose && resp.Request != nil {
			writeHeaders(f.writer, "> ", resp.Request.Header)
		}
		fmt.Fprintf(f.writer, "%s %s\n", statusColor(resp.StatusCode).Sprint(resp.Status),
			cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))
		if f.verbose {
			writeHeaders(f.writer, "< ", resp.Headers)
		}
		if len(resp.Body) > 0 {
			text, err := resp.Text()
			if err != nil {
				text = resp.BodyString()
			}
			fmt.Fprintf(f.writer, "\n%s\n", strings.TrimRight(text, "\n"))
		}
	}

	if x.Err != nil {
		fmt.Fprintf(f.writer, "%s %v\n", red("x"), x.Err)
	}

	if len(x.Assertions) == 0 {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(f.writer, "\n")
	for _, a := range x.Assertions {
		if a.Passed {
			fmt.Fprintf(f.writer, "  %s %s %s %s\n", green("✓"), a.Subject, a.Operator, formatValue(a.Expected, 100))
			continue
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), a.Subject, a.Operator)
		fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(a.Expected, 100))
		fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(a.Actual, 100))
		if a.Message != "" {
			fmt.Fprintf(f.writer, "      %s\n", a.Message)
		}
	}
}

func (f *ConsoleFormatter) FormatEncoded(contentType string, body []byte) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n\n", bold("Content-Type:"), contentType)
	_, _ = f.writer.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		fmt.Fprintf(f.writer, "\n")
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hittest"), version)
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen, color.Bold)
	case code >= 300 && code < 400:
		return color.New(color.FgYellow, color.Bold)
	}
	return color.New(color.FgRed, color.Bold)
}

func writeHeaders(w io.Writer, prefix string, h map[string][]string) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h[name] {
			fmt.Fprintf(w, "%s%s: %s\n", prefix, name, v)
		}
	}
}
