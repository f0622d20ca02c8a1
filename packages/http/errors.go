package http

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"

	"github.com/abdul-hamid-achik/hittest/packages/params"
)

// AppError reports a response that did not meet expectations. Its message
// always renders, whatever bytes the application sent back.
type AppError struct {
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError formats an AppError. Byte slice arguments are decoded as text
// and responses render with their status line, headers and body.
func NewAppError(format string, args ...any) *AppError {
	converted := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case []byte:
			converted[i] = decodeLossy(v, "")
		case *Response:
			if v == nil {
				converted[i] = "<no response>"
				continue
			}
			converted[i] = v.String()
		default:
			converted[i] = arg
		}
	}
	return &AppError{Message: fmt.Sprintf(format, converted...)}
}

// decodeLossy never fails: it tries the declared charset, then the bytes
// as UTF-8, then a detected charset, and finally replaces invalid
// sequences with U+FFFD.
func decodeLossy(b []byte, charset string) string {
	if charset != "" {
		if s, err := params.DecodeText(b, charset); err == nil {
			return s
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	if guess, err := chardet.NewTextDetector().DetectBest(b); err == nil && guess.Charset != "" {
		if s, err := params.DecodeText(b, guess.Charset); err == nil {
			return s
		}
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
