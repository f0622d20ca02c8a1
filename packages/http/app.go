package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hittest/packages/cookies"
	"github.com/abdul-hamid-achik/hittest/packages/core/config"
)

const (
	// DefaultHost is used when a request URL carries no host
	DefaultHost = config.DefaultHost
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = config.DefaultMaxRedirects
	// remoteAddr is reported to handlers as the peer address
	remoteAddr = "127.0.0.1:0"
)

// JSONEncoder serializes JSON request bodies.
type JSONEncoder func(v any) ([]byte, error)

type App struct {
	handler        http.Handler
	host           string
	followRedirect bool
	maxRedirects   int
	relativeTo     string
	charset        string
	defaultHeaders map[string]string
	jar            cookies.Jar
	jsonEncoder    JSONEncoder
	logger         *zap.Logger
}

type Option func(*App)

// NewApp returns an App that serves every request with handler.
func NewApp(handler http.Handler, opts ...Option) *App {
	c := &App{
		handler:        handler,
		host:           DefaultHost,
		maxRedirects:   DefaultMaxRedirects,
		defaultHeaders: make(map[string]string),
		jsonEncoder:    DefaultJSONEncoder,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.jar == nil {
		c.jar = cookies.NewStdJar()
	}

	return c
}

// OptionsFromConfig translates a loaded configuration into app options.
func OptionsFromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	opts := []Option{
		WithFollowRedirects(cfg.GetFollowRedirects()),
		WithDefaultHeaders(cfg.Headers),
	}
	if cfg.Host != "" {
		opts = append(opts, WithHost(cfg.Host))
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.RelativeTo != "" {
		opts = append(opts, WithRelativeTo(cfg.RelativeTo))
	}
	if cfg.Charset != "" {
		opts = append(opts, WithCharset(cfg.Charset))
	}
	return opts
}

// WithHost sets the host relative URLs are addressed to.
func WithHost(host string) Option {
	return func(c *App) {
		c.host = host
	}
}

func WithFollowRedirects(follow bool) Option {
	return func(c *App) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) Option {
	return func(c *App) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(c *App) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *App) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithJar replaces the default cookie jar.
func WithJar(jar cookies.Jar) Option {
	return func(c *App) {
		c.jar = jar
	}
}

// WithRelativeTo sets the directory upload paths are resolved against.
func WithRelativeTo(dir string) Option {
	return func(c *App) {
		c.relativeTo = dir
	}
}

// WithCharset sets the charset multipart text parts are encoded with.
func WithCharset(charset string) Option {
	return func(c *App) {
		c.charset = charset
	}
}

// WithJSONEncoder overrides the serializer used by the JSON helpers.
func WithJSONEncoder(enc JSONEncoder) Option {
	return func(c *App) {
		c.jsonEncoder = enc
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *App) {
		c.logger = logger
	}
}

// Jar returns the cookie jar shared by every request of c.
func (c *App) Jar() cookies.Jar {
	return c.jar
}

// Do builds req, serves it and checks the response status.
func (c *App) Do(req *Request) (*Response, error) {
	resp, err := c.dispatch(req)
	if err != nil {
		return nil, err
	}

	for c.followRedirect && resp.IsRedirect() && resp.Location() != "" {
		if resp.redirects >= c.maxRedirects {
			break
		}
		next, err := c.redirectRequest(resp, req)
		if err != nil {
			return nil, err
		}
		followed, err := c.dispatch(next)
		if err != nil {
			return nil, err
		}
		followed.redirects = resp.redirects + 1
		resp = followed
	}

	if err := CheckStatus(req.Status, resp); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *App) dispatch(req *Request) (*Response, error) {
	if req.err != nil {
		return nil, req.err
	}
	rawURL, err := req.target()
	if err != nil {
		return nil, err
	}
	target, err := c.absoluteURL(rawURL)
	if err != nil {
		return nil, err
	}

	body, contentType, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.newHTTPRequest(req.Context(), string(req.Method), target, body)
	if err != nil {
		return nil, err
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.XHR {
		httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
		httpReq.Header.Del("Host")
	}

	c.jar.AddCookieHeader(cookies.NewRequestAdapter(httpReq))

	recorder := httptest.NewRecorder()
	start := time.Now()
	c.handler.ServeHTTP(recorder, httpReq)
	duration := time.Since(start)

	httpResp := recorder.Result()
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading recorded body")
	}

	c.jar.ExtractCookies(cookies.NewResponseAdapter(httpResp), cookies.NewRequestAdapter(httpReq))

	c.logger.Debug("request served",
		zap.String("method", httpReq.Method),
		zap.String("url", httpReq.URL.String()),
		zap.Int("status", httpResp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("duration", duration),
	)

	return &Response{
		StatusCode:  httpResp.StatusCode,
		Status:      httpResp.Status,
		Headers:     httpResp.Header,
		Body:        respBody,
		Duration:    duration,
		Request:     httpReq,
		RequestBody: body,
		app:         c,
	}, nil
}

// newHTTPRequest mirrors what a server hands to its handlers: an absolute
// request line, a peer address and TLS state for https.
func (c *App) newHTTPRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", method, target)
	}
	if len(body) == 0 {
		httpReq.Body = http.NoBody
		httpReq.GetBody = nil
	}
	httpReq.ContentLength = int64(len(body))
	httpReq.RequestURI = httpReq.URL.RequestURI()
	httpReq.RemoteAddr = remoteAddr
	httpReq.Proto = "HTTP/1.1"
	httpReq.ProtoMajor = 1
	httpReq.ProtoMinor = 1
	if httpReq.URL.Scheme == "https" {
		httpReq.TLS = &tls.ConnectionState{
			Version:           tls.VersionTLS12,
			HandshakeComplete: true,
			ServerName:        httpReq.URL.Hostname(),
		}
	}
	return httpReq, nil
}

// absoluteURL resolves raw against the app's host and drops fragments,
// which never reach a server.
func (c *App) absoluteURL(raw string) (string, error) {
	if raw == "" {
		raw = "/"
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "invalid URL %q", raw)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = c.host
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func (c *App) redirectRequest(resp *Response, orig *Request) (*Request, error) {
	location, err := resp.resolveLocation()
	if err != nil {
		return nil, err
	}
	method := MethodGet
	if resp.StatusCode == http.StatusTemporaryRedirect || resp.StatusCode == http.StatusPermanentRedirect {
		method = orig.Method
	}
	next := &Request{
		Method:  method,
		URL:     location,
		Headers: orig.Headers,
		Status:  StatusAny,
		ctx:     orig.ctx,
	}
	if method == orig.Method && !orig.queryParams() {
		next.Params = orig.Params
		next.ContentType = orig.ContentType
		next.UploadFiles = orig.UploadFiles
		next.noUploads = orig.noUploads
		next.forceBody = orig.forceBody
	}
	return next, nil
}

// Request is the generic entry point every verb helper goes through.
func (c *App) Request(method Method, url string, opts ...RequestOption) (*Response, error) {
	req := NewRequest(method, url)
	for _, opt := range opts {
		opt(req)
	}
	return c.Do(req)
}

func (c *App) Get(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodGet, url, opts...)
}

func (c *App) Head(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodHead, url, opts...)
}

func (c *App) Options(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodOptions, url, opts...)
}

func (c *App) Post(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodPost, url, opts...)
}

func (c *App) Put(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodPut, url, opts...)
}

func (c *App) Patch(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodPatch, url, opts...)
}

func (c *App) Delete(url string, opts ...RequestOption) (*Response, error) {
	return c.Request(MethodDelete, url, opts...)
}

// SetCookie stores a cookie for the app's host as if the application
// had set it. A value holding bytes outside the cookie-octet set (";",
// spaces, quotes, non-ASCII) is stored query-escaped so it cannot split
// into further cookies; handlers read it back with url.QueryUnescape.
func (c *App) SetCookie(name, value string) error {
	if name == "" || strings.ContainsFunc(name, func(r rune) bool { return !isCookieOctet(r) || r == '=' }) {
		return errors.Errorf("invalid cookie name %q", name)
	}
	if strings.ContainsFunc(value, func(r rune) bool { return !isCookieOctet(r) }) {
		value = neturl.QueryEscape(value)
	}

	setter, ok := c.jar.(interface {
		Set(rawURL string, cookie *http.Cookie) error
	})
	if !ok {
		return errors.Errorf("cookie jar %T cannot store cookies directly", c.jar)
	}
	return setter.Set("http://"+c.host+"/", &http.Cookie{Name: name, Value: value, Path: "/"})
}

// isCookieOctet reports whether r may appear unquoted in a cookie value.
func isCookieOctet(r rune) bool {
	return r > 0x20 && r < 0x7f && r != '"' && r != ',' && r != ';' && r != '\\'
}

// Cookies returns a copy of the cookies a request to the root of the
// app's host would carry, secure ones included.
func (c *App) Cookies() map[string]string {
	return cookies.Snapshot(c.jar, "https://"+c.host+"/")
}

// Reset drops every cookie.
func (c *App) Reset() {
	c.jar.Clear()
}
