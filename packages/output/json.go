package output

import (
	"io"
	"os"

	"github.com/bytedance/sonic"
)

// JSONExchange is the JSON rendering of an Exchange.
type JSONExchange struct {
	Method     string          `json:"method"`
	URL        string          `json:"url"`
	Passed     bool            `json:"passed"`
	Error      string          `json:"error,omitempty"`
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
}

type JSONRequest struct {
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"`
}

type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       string              `json:"body,omitempty"`
	Duration   float64             `json:"duration"`
}

type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONEncoded is the JSON rendering of an encoded request body.
type JSONEncoded struct {
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

// JSONFormatter writes one indented JSON document per call.
type JSONFormatter struct {
	writer io.Writer
}

var _ Formatter = (*JSONFormatter)(nil)

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatExchange(x *Exchange) {
	out := JSONExchange{
		Method: x.Method,
		URL:    x.URL,
		Passed: x.Passed(),
	}
	if x.Err != nil {
		out.Error = x.Err.Error()
	}

	if resp := x.Response; resp != nil {
		if resp.Request != nil {
			out.Request = &JSONRequest{
				Headers: resp.Request.Header,
				Body:    string(resp.RequestBody),
			}
		}
		body, err := resp.Text()
		if err != nil {
			body = resp.BodyString()
		}
		out.Response = &JSONResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Headers,
			Body:       body,
			Duration:   float64(resp.Duration.Milliseconds()),
		}
	}

	for _, a := range x.Assertions {
		out.Assertions = append(out.Assertions, JSONAssertion{
			Subject:  a.Subject,
			Operator: a.Operator,
			Expected: a.Expected,
			Actual:   a.Actual,
			Passed:   a.Passed,
			Message:  a.Message,
		})
	}

	f.write(out)
}

func (f *JSONFormatter) FormatEncoded(contentType string, body []byte) {
	f.write(JSONEncoded{ContentType: contentType, Body: string(body)})
}

func (f *JSONFormatter) FormatError(err error) {
	f.write(map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) write(v any) {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte(`{"error":` + quote(err.Error()) + `}`)
	}
	_, _ = f.writer.Write(append(data, '\n'))
}

func quote(s string) string {
	b, _ := sonic.ConfigStd.Marshal(s)
	return string(b)
}
