package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/abdul-hamid-achik/hittest/packages/multipart"
	"github.com/abdul-hamid-achik/hittest/packages/params"
)

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
)

// FormContentType is sent with bodies that carry no explicit content type.
const FormContentType = "application/x-www-form-urlencoded"

// usesQuery reports whether params for m travel in the query string rather
// than the body.
func (m Method) usesQuery() bool {
	switch m {
	case MethodGet, MethodHead, MethodOptions:
		return true
	}
	return false
}

type Request struct {
	Method      Method
	URL         string
	Params      params.Params
	Headers     map[string]string
	ContentType string
	UploadFiles []multipart.FileField
	XHR         bool
	// Status is the expected response status. The zero value accepts any
	// 2xx or 3xx response.
	Status Status

	noUploads bool
	forceBody bool
	encoder   JSONEncoder
	err       error
	ctx       context.Context
}

type RequestOption func(*Request)

func NewRequest(method Method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
	}
}

// Context returns the request context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[http.CanonicalHeaderKey(key)] = value
	return r
}

// WithParams sets the query (GET, HEAD, OPTIONS) or body params.
func WithParams(p params.Params) RequestOption {
	return func(r *Request) {
		r.Params = p
	}
}

// WithFields is shorthand for WithParams(params.Pairs(fields...)).
func WithFields(fields ...params.Field) RequestOption {
	return WithParams(params.Pairs(fields...))
}

// WithBody sends body verbatim.
func WithBody(body string) RequestOption {
	return WithParams(params.Raw(body))
}

// WithHeader sets a request header. Keys are canonicalized, so
// "content-type" and "Content-Type" name the same header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		r.Headers[http.CanonicalHeaderKey(key)] = value
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range headers {
			r.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}
}

// WithStatus sets the status the response is expected to have.
func WithStatus(s Status) RequestOption {
	return func(r *Request) {
		r.Status = s
	}
}

// WithXHR marks the request as issued by XMLHttpRequest.
func WithXHR() RequestOption {
	return func(r *Request) {
		r.XHR = true
	}
}

func WithContentType(contentType string) RequestOption {
	return func(r *Request) {
		r.ContentType = contentType
	}
}

// WithUploadFiles adds file parts after the params, forcing a multipart body.
func WithUploadFiles(files ...multipart.FileField) RequestOption {
	return func(r *Request) {
		if r.noUploads {
			r.err = errors.New("file uploads cannot be combined with a JSON body")
			return
		}
		r.UploadFiles = append(r.UploadFiles, files...)
	}
}

func WithContext(ctx context.Context) RequestOption {
	return func(r *Request) {
		r.ctx = ctx
	}
}

// target returns the URL the request is sent to, fragment removed and query
// params appended for query methods.
func (r *Request) target() (string, error) {
	url, _, _ := strings.Cut(r.URL, "#")
	if !r.queryParams() {
		return url, nil
	}
	return params.BuildParams(url, r.Params)
}

func (r *Request) queryParams() bool {
	return r.Method.usesQuery() && !r.forceBody
}

func (r *Request) hasUploads() bool {
	if r.noUploads {
		return false
	}
	return len(r.UploadFiles) > 0 || multipart.HasUploads(r.Params.Fields())
}

// encodeBody returns the body for r and the content type it should be sent
// with. Query methods have no body.
func (c *App) encodeBody(r *Request) ([]byte, string, error) {
	if r.queryParams() {
		return nil, r.ContentType, nil
	}

	if r.hasUploads() {
		b := multipart.Builder{Charset: c.charset, BaseDir: c.relativeTo}
		contentType, body, err := b.Encode(r.Params.Fields(), r.UploadFiles)
		if err != nil {
			return nil, "", errors.Wrapf(err, "encoding multipart body for %s %s", r.Method, r.URL)
		}
		return body, contentType, nil
	}

	contentType := r.ContentType
	if contentType == "" {
		contentType = r.Headers[http.CanonicalHeaderKey("Content-Type")]
	}
	encoded, err := params.EncodeParams(r.Params, contentType)
	if err != nil {
		return nil, "", errors.Wrapf(err, "encoding body for %s %s", r.Method, r.URL)
	}
	if contentType == "" && encoded != "" {
		contentType = FormContentType
	}
	return []byte(encoded), contentType, nil
}
