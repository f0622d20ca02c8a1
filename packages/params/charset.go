package params

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// EncodingError reports a value that cannot be represented in the declared
// charset, or a charset that is not known at all.
type EncodingError struct {
	Charset string
	Value   string
	Reason  string
	Err     error
}

func (e *EncodingError) Error() string {
	var b strings.Builder
	b.WriteString("encoding error")
	if e.Charset != "" {
		fmt.Fprintf(&b, " (charset %s)", e.Charset)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ": cannot encode %q", e.Value)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

var (
	asciiLabels = map[string]bool{
		"ascii": true, "us-ascii": true, "us": true, "ansi_x3.4-1968": true,
		"iso646-us": true, "iso-ir-6": true, "646": true, "cp367": true, "csascii": true,
	}
	latin1Labels = map[string]bool{
		"latin1": true, "latin-1": true, "l1": true, "iso-8859-1": true, "iso8859-1": true,
		"iso_8859-1": true, "iso-ir-100": true, "cp819": true, "ibm819": true, "csisolatin1": true,
	}
)

func normalizeLabel(charset string) string {
	return strings.ToLower(strings.TrimSpace(charset))
}

// LookupCharset resolves a charset label by its IANA name, falling back to
// the WHATWG label table. ASCII and Latin-1 labels always mean the strict
// encodings, never windows-1252.
func LookupCharset(charset string) (encoding.Encoding, error) {
	label := normalizeLabel(charset)
	if label == "" {
		return unicode.UTF8, nil
	}
	if asciiLabels[label] || latin1Labels[label] {
		return charmap.ISO8859_1, nil
	}
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, &EncodingError{Charset: charset, Reason: "unknown charset", Err: err}
	}
	return enc, nil
}

// Transcode encodes UTF-8 text into charset.
func Transcode(text, charset string) ([]byte, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}
	if asciiLabels[normalizeLabel(charset)] {
		for _, r := range text {
			if r >= 0x80 {
				return nil, &EncodingError{Charset: charset, Value: text, Reason: fmt.Sprintf("rune %q is not ASCII", r)}
			}
		}
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, &EncodingError{Charset: charset, Value: text, Err: err}
	}
	return out, nil
}

// DecodeText turns bytes in charset into UTF-8 text.
func DecodeText(b []byte, charset string) (string, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", &EncodingError{Charset: charset, Err: err}
	}
	return string(out), nil
}
