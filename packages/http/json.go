package http

import (
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/abdul-hamid-achik/hittest/packages/params"
)

// JSONContentType is the default content type of JSON request bodies.
const JSONContentType = "application/json"

// DefaultJSONEncoder marshals with sonic's encoding/json compatible config.
func DefaultJSONEncoder(v any) ([]byte, error) {
	return sonic.ConfigStd.Marshal(v)
}

// JSON sends value as a JSON body; nil is sent as null. Pass params.None()
// to leave the body empty. The content type defaults to application/json
// and can be overridden with WithContentType; uploads are refused on this
// path.
func (c *App) JSON(method Method, url string, value any, opts ...RequestOption) (*Response, error) {
	req := NewRequest(method, url)
	req.noUploads = true
	req.ContentType = JSONContentType

	encode := c.jsonEncoder
	for _, opt := range opts {
		opt(req)
	}
	if req.encoder != nil {
		encode = req.encoder
	}

	if absent, ok := value.(params.Params); ok && !absent.IsSet() {
		req.Params = params.None()
	} else {
		body, err := encode(value)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding JSON body for %s %s", method, url)
		}
		req.Params = params.Raw(string(body))
	}

	// JSON always travels in the body, GET included.
	req.forceBody = true
	return c.Do(req)
}

func (c *App) PostJSON(url string, value any, opts ...RequestOption) (*Response, error) {
	return c.JSON(MethodPost, url, value, opts...)
}

func (c *App) PutJSON(url string, value any, opts ...RequestOption) (*Response, error) {
	return c.JSON(MethodPut, url, value, opts...)
}

func (c *App) PatchJSON(url string, value any, opts ...RequestOption) (*Response, error) {
	return c.JSON(MethodPatch, url, value, opts...)
}

func (c *App) DeleteJSON(url string, value any, opts ...RequestOption) (*Response, error) {
	return c.JSON(MethodDelete, url, value, opts...)
}

// WithEncoder overrides the App's JSON encoder for a single request.
func WithEncoder(enc JSONEncoder) RequestOption {
	return func(r *Request) {
		r.encoder = enc
	}
}
