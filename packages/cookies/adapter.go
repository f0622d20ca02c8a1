package cookies

import (
	"net/http"
	"net/url"
)

// Request is the view of an outgoing request a Jar needs: where it goes and
// a way to set the computed Cookie header.
type Request interface {
	FullURL() string
	Host() string
	Type() string
	Unverifiable() bool
	HasHeader(key string) bool
	Header(key string) string
	AddUnredirectedHeader(key, value string)
	HeaderItems() http.Header
}

// Response is the view of a response a Jar reads Set-Cookie headers from.
type Response interface {
	Info() Response
	HeaderValues(name string) []string
}

// RequestAdapter exposes an *http.Request to a Jar. It holds no cookie
// state and is meant to live for a single jar call.
type RequestAdapter struct {
	req        *http.Request
	originHost string
}

var _ Request = (*RequestAdapter)(nil)

func NewRequestAdapter(req *http.Request) *RequestAdapter {
	return &RequestAdapter{
		req:        req,
		originHost: requestHost(req),
	}
}

// FullURL returns the absolute URL of the request, including the query.
func (a *RequestAdapter) FullURL() string {
	u := *a.req.URL
	u.Fragment = ""
	u.RawFragment = ""
	if u.Scheme == "" {
		u.Scheme = a.Type()
	}
	if a.originHost != "" {
		u.Host = a.originHost
	}
	return u.String()
}

// Host is the origin host, fixed when the adapter was built.
func (a *RequestAdapter) Host() string {
	return a.originHost
}

// Type returns the URL scheme.
func (a *RequestAdapter) Type() string {
	if a.req.URL != nil && a.req.URL.Scheme != "" {
		return a.req.URL.Scheme
	}
	if a.req.TLS != nil {
		return "https"
	}
	return "http"
}

// Unverifiable is always false: every request is a direct navigation, so
// first-party cookie rules apply.
func (a *RequestAdapter) Unverifiable() bool {
	return false
}

func (a *RequestAdapter) HasHeader(key string) bool {
	_, ok := a.req.Header[http.CanonicalHeaderKey(key)]
	return ok
}

func (a *RequestAdapter) Header(key string) string {
	return a.req.Header.Get(key)
}

// AddUnredirectedHeader sets a header on the wrapped request.
func (a *RequestAdapter) AddUnredirectedHeader(key, value string) {
	a.req.Header.Set(key, value)
}

func (a *RequestAdapter) HeaderItems() http.Header {
	return a.req.Header
}

// ResponseAdapter exposes an *http.Response to a Jar.
type ResponseAdapter struct {
	resp *http.Response
}

var _ Response = (*ResponseAdapter)(nil)

func NewResponseAdapter(resp *http.Response) *ResponseAdapter {
	return &ResponseAdapter{resp: resp}
}

// Info returns the adapter itself, which doubles as the header container.
func (a *ResponseAdapter) Info() Response {
	return a
}

// HeaderValues returns every value of the header, in order.
func (a *ResponseAdapter) HeaderValues(name string) []string {
	return a.resp.Header.Values(name)
}

func requestHost(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	if req.URL != nil {
		return req.URL.Host
	}
	return ""
}

// parseURL is url.Parse with the fragment dropped.
func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	u.Fragment = ""
	return u, nil
}
