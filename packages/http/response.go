package http

import (
	"net/http"
	neturl "net/url"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hittest/packages/params"
	"github.com/abdul-hamid-achik/hittest/packages/pattern"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	// Request is the request the handler saw.
	Request     *http.Request
	RequestBody []byte

	app       *App
	redirects int
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := sonic.ConfigStd.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// Charset is the charset declared by the Content-Type header, if any.
func (r *Response) Charset() string {
	return params.Charset(r.ContentType())
}

// Text decodes the body with the declared charset, UTF-8 when none is.
func (r *Response) Text() (string, error) {
	return params.DecodeText(r.Body, r.Charset())
}

// JSON returns the value at path (gjson syntax). An empty path returns the
// whole document.
func (r *Response) JSON(path string) gjson.Result {
	if path == "" {
		return gjson.ParseBytes(r.Body)
	}
	return gjson.GetBytes(r.Body, path)
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// URL is the URL the request was served at.
func (r *Response) URL() string {
	if r.Request == nil || r.Request.URL == nil {
		return ""
	}
	return r.Request.URL.String()
}

// Search returns the first match of p in the body text with its
// submatches, or nil. p is anything pattern.MakePattern accepts.
func (r *Response) Search(p any) ([]string, error) {
	m, err := pattern.MakePattern(p)
	if err != nil {
		return nil, err
	}
	text, err := r.Text()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return []string{text}, nil
	}
	return m(text), nil
}

// Location returns the raw Location header.
func (r *Response) Location() string {
	return r.Header("Location")
}

func (r *Response) resolveLocation() (string, error) {
	location := r.Location()
	if location == "" {
		return "", NewAppError("Redirect response has no Location header\n%s", r)
	}
	loc, err := neturl.Parse(location)
	if err != nil {
		return "", errors.Wrapf(err, "invalid Location %q", location)
	}
	if r.Request == nil || r.Request.URL == nil {
		return loc.String(), nil
	}
	return r.Request.URL.ResolveReference(loc).String(), nil
}

// Follow issues a GET to the Location of a redirect response.
func (r *Response) Follow(opts ...RequestOption) (*Response, error) {
	if !r.IsRedirect() {
		return nil, NewAppError("You can only follow redirect responses (not %s)", r.Status)
	}
	if r.app == nil {
		return nil, errors.New("response is not bound to an App")
	}
	location, err := r.resolveLocation()
	if err != nil {
		return nil, err
	}
	return r.app.Get(location, opts...)
}

// MaybeFollow follows redirects until a non-redirect response, giving up
// after the App's redirect limit.
func (r *Response) MaybeFollow(opts ...RequestOption) (*Response, error) {
	resp := r
	limit := DefaultMaxRedirects
	if r.app != nil {
		limit = r.app.maxRedirects
	}
	for i := 0; resp.IsRedirect(); i++ {
		if i >= limit {
			return resp, NewAppError("Too many redirects (%d) ending at %s", i, resp.URL())
		}
		next, err := resp.Follow(opts...)
		if err != nil {
			return resp, err
		}
		resp = next
	}
	return resp, nil
}

// String renders the status line, headers in name order and the body text.
func (r *Response) String() string {
	var b strings.Builder
	b.WriteString("Response: " + r.Status + "\n")

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range r.Headers[name] {
			b.WriteString(name + ": " + v + "\n")
		}
	}
	if len(r.Body) > 0 {
		b.WriteString("\n")
		b.WriteString(decodeLossy(r.Body, r.Charset()))
	}
	return b.String()
}
