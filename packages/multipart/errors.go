package multipart

import "strings"

// UploadError reports a malformed file field.
type UploadError struct {
	Field  string
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	var b strings.Builder
	b.WriteString("invalid upload")
	if e.Field != "" {
		b.WriteString(" for field " + e.Field)
	}
	b.WriteString(": " + e.Reason)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
