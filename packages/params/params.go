package params

import (
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

type kind int

const (
	kindNone kind = iota
	kindRaw
	kindPairs
)

// Field is a single name/value pair. Value may be a string, a []byte, a
// sequence of either (expanded into repeated pairs), an Upload understood by
// the multipart builder, or any scalar cast can stringify.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for Field{Name: name, Value: value}.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Params is the query or body payload of a request. The zero value means no
// params were given, which is distinct from Raw("").
type Params struct {
	kind  kind
	raw   string
	pairs []Field
}

// None returns the absent Params.
func None() Params {
	return Params{}
}

// Raw wraps an already encoded string. It is sent as is.
func Raw(s string) Params {
	return Params{kind: kindRaw, raw: s}
}

// Pairs keeps fields in the order given, duplicates included.
func Pairs(fields ...Field) Params {
	return Params{kind: kindPairs, pairs: fields}
}

// FromMap converts a mapping into pairs sorted by key.
func FromMap(m map[string]any) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Name: k, Value: m[k]})
	}
	return Pairs(fields...)
}

// FromValues converts url.Values into pairs sorted by key. Values of a key
// keep their order.
func FromValues(v url.Values) Params {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fields []Field
	for _, k := range keys {
		for _, val := range v[k] {
			fields = append(fields, Field{Name: k, Value: val})
		}
	}
	return Pairs(fields...)
}

func (p Params) IsSet() bool {
	return p.kind != kindNone
}

func (p Params) IsRaw() bool {
	return p.kind == kindRaw
}

// RawString returns the raw payload, or "" for any other kind.
func (p Params) RawString() string {
	return p.raw
}

// Fields returns the ordered pairs, or nil for raw and absent params.
func (p Params) Fields() []Field {
	return p.pairs
}

// Charset extracts the charset parameter of a content type, lower cased.
func Charset(contentType string) string {
	ct := strings.ToLower(contentType)
	idx := strings.Index(ct, "charset=")
	if idx < 0 {
		return ""
	}
	charset := ct[idx+len("charset="):]
	if end := strings.IndexByte(charset, ';'); end >= 0 {
		charset = charset[:end]
	}
	return strings.Trim(charset, "; \"'")
}

// EncodeParams form-encodes p. When contentType declares a charset every
// text value is transcoded into it first; bytes are sent verbatim.
func EncodeParams(p Params, contentType string) (string, error) {
	switch p.kind {
	case kindNone:
		return "", nil
	case kindRaw:
		return p.raw, nil
	}

	charset := Charset(contentType)
	var b strings.Builder
	for _, field := range p.pairs {
		values, err := Expand(field.Value)
		if err != nil {
			return "", errors.Wrapf(err, "field %q", field.Name)
		}
		for _, v := range values {
			raw := v
			if text, ok := v.(string); ok && charset != "" {
				encoded, err := Transcode(text, charset)
				if err != nil {
					return "", err
				}
				raw = encoded
			}
			s, err := Stringify(raw)
			if err != nil {
				return "", errors.Wrapf(err, "field %q", field.Name)
			}
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(field.Name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(s))
		}
	}
	return b.String(), nil
}

// BuildParams appends the encoded params to rawURL as a query string.
func BuildParams(rawURL string, p Params) (string, error) {
	if !p.IsSet() {
		return rawURL, nil
	}
	query, err := EncodeParams(p, "")
	if err != nil {
		return "", err
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query, nil
	}
	return rawURL + "?" + query, nil
}

// Decode parses a form-encoded string back into ordered fields.
func Decode(query string) ([]Field, error) {
	var fields []Field
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding name %q", name)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding value of %q", n)
		}
		fields = append(fields, Field{Name: n, Value: v})
	}
	return fields, nil
}

// Expand flattens sequence values into their items, keeping order.
func Expand(value any) ([]any, error) {
	switch v := value.(type) {
	case nil:
		return []any{""}, nil
	case string, []byte:
		return []any{v}, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case [][]byte:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			switch item.(type) {
			case []any, []string, [][]byte:
				return nil, &EncodingError{Reason: "nested sequences cannot be form-encoded"}
			}
			out = append(out, item)
		}
		return out, nil
	default:
		return []any{v}, nil
	}
}

// Stringify renders a scalar as text. []byte is taken verbatim.
func Stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", &EncodingError{Reason: err.Error()}
	}
	return s, nil
}
