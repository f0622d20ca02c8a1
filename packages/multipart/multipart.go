package multipart

import (
	"bytes"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/abdul-hamid-achik/hittest/packages/params"
)

// DefaultContentType is used for file parts whose type cannot be guessed.
const DefaultContentType = "application/octet-stream"

// maxBoundaryAttempts bounds boundary regeneration when a candidate collides
// with part content.
const maxBoundaryAttempts = 8

// Source yields the upload a file part is built from.
type Source interface {
	resolve(baseDir string) (Upload, error)
}

// Upload is an in-memory file. It can be used as a Source or directly as a
// params.Field value to keep it at its position among plain fields.
type Upload struct {
	FileName    string
	Content     []byte
	ContentType string
}

func (u Upload) resolve(string) (Upload, error) {
	if u.FileName == "" {
		return Upload{}, &UploadError{Reason: "upload has no file name"}
	}
	if u.ContentType == "" {
		u.ContentType = guessByExtension(u.FileName)
	}
	return u, nil
}

// Path is a file on disk, read when the body is built. Relative paths are
// resolved against the builder's BaseDir.
type Path string

func (p Path) resolve(baseDir string) (Upload, error) {
	path := string(p)
	if path == "" {
		return Upload{}, &UploadError{Reason: "empty file path"}
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, &UploadError{Reason: "reading " + path, Err: err}
	}

	contentType := guessByExtension(path)
	if contentType == DefaultContentType {
		contentType = mediaType(mimetype.Detect(content).String())
	}
	return Upload{
		FileName:    filepath.Base(path),
		Content:     content,
		ContentType: contentType,
	}, nil
}

// FileField names a Source.
type FileField struct {
	Name   string
	Source Source
}

// File is shorthand for an inline upload field.
func File(name, fileName string, content []byte, contentType ...string) FileField {
	u := Upload{FileName: fileName, Content: content}
	if len(contentType) > 0 {
		u.ContentType = contentType[0]
	}
	return FileField{Name: name, Source: u}
}

// FileAt is shorthand for a file field read from disk.
func FileAt(name, path string) FileField {
	return FileField{Name: name, Source: Path(path)}
}

// Builder assembles multipart/form-data bodies.
type Builder struct {
	// Charset text names and values are encoded with. Defaults to UTF-8.
	Charset string
	// BaseDir relative Path sources are joined to. Absolute paths are used
	// as given.
	BaseDir string
}

type part struct {
	name     []byte
	fileName []byte
	value    []byte
	upload   *Upload
}

// Encode builds the body from fields followed by files. Upload values inside
// fields stay at their position, so a single ordered field list interleaves
// plain and file parts exactly as given.
func (b *Builder) Encode(fields []params.Field, files []FileField) (string, []byte, error) {
	parts := make([]part, 0, len(fields)+len(files))

	for _, f := range fields {
		name, err := b.encodeParam(f.Name)
		if err != nil {
			return "", nil, err
		}
		switch v := f.Value.(type) {
		case Upload:
			u, err := v.resolve(b.BaseDir)
			if err != nil {
				return "", nil, errors.Wrapf(err, "field %q", f.Name)
			}
			p, err := b.filePart(name, u)
			if err != nil {
				return "", nil, errors.Wrapf(err, "field %q", f.Name)
			}
			parts = append(parts, p)
			continue
		case *Upload:
			if v == nil {
				return "", nil, &UploadError{Field: f.Name, Reason: "nil upload"}
			}
			u, err := v.resolve(b.BaseDir)
			if err != nil {
				return "", nil, errors.Wrapf(err, "field %q", f.Name)
			}
			p, err := b.filePart(name, u)
			if err != nil {
				return "", nil, errors.Wrapf(err, "field %q", f.Name)
			}
			parts = append(parts, p)
			continue
		}

		values, err := params.Expand(f.Value)
		if err != nil {
			return "", nil, errors.Wrapf(err, "field %q", f.Name)
		}
		for _, value := range values {
			encoded, err := b.encodeValue(value)
			if err != nil {
				return "", nil, errors.Wrapf(err, "field %q", f.Name)
			}
			parts = append(parts, part{name: name, value: encoded})
		}
	}

	for _, f := range files {
		if f.Name == "" {
			return "", nil, &UploadError{Reason: "file field has no name"}
		}
		if f.Source == nil {
			return "", nil, &UploadError{Field: f.Name, Reason: "no source"}
		}
		u, err := f.Source.resolve(b.BaseDir)
		if err != nil {
			return "", nil, errors.Wrapf(err, "file field %q", f.Name)
		}
		name, err := b.encodeParam(f.Name)
		if err != nil {
			return "", nil, err
		}
		p, err := b.filePart(name, u)
		if err != nil {
			return "", nil, errors.Wrapf(err, "file field %q", f.Name)
		}
		parts = append(parts, p)
	}

	boundary, err := newBoundary(parts)
	if err != nil {
		return "", nil, err
	}

	var body bytes.Buffer
	for _, p := range parts {
		body.WriteString("--" + boundary + "\r\n")
		body.WriteString(`Content-Disposition: form-data; name="`)
		body.Write(p.name)
		body.WriteByte('"')
		if p.upload != nil {
			body.WriteString(`; filename="`)
			body.Write(p.fileName)
			body.WriteString("\"\r\n")
			body.WriteString("Content-Type: " + p.upload.ContentType + "\r\n\r\n")
			body.Write(p.upload.Content)
		} else {
			body.WriteString("\r\n\r\n")
			body.Write(p.value)
		}
		body.WriteString("\r\n")
	}
	body.WriteString("--" + boundary + "--\r\n")

	return "multipart/form-data; boundary=" + boundary, body.Bytes(), nil
}

// EncodeMultipart builds a body with the default Builder.
func EncodeMultipart(fields []params.Field, files []FileField) (string, []byte, error) {
	var b Builder
	return b.Encode(fields, files)
}

// HasUploads reports whether any field value is an Upload.
func HasUploads(fields []params.Field) bool {
	for _, f := range fields {
		switch f.Value.(type) {
		case Upload, *Upload:
			return true
		}
	}
	return false
}

func (b *Builder) filePart(name []byte, u Upload) (part, error) {
	fileName, err := b.encodeParam(u.FileName)
	if err != nil {
		return part{}, err
	}
	return part{name: name, fileName: fileName, upload: &u}, nil
}

// paramEscaper escapes a Content-Disposition parameter the way
// mime/multipart does, with CR and LF percent-encoded as browsers send them.
var paramEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "%0D", "\n", "%0A")

// encodeParam escapes s for a quoted header parameter and transcodes it.
func (b *Builder) encodeParam(s string) ([]byte, error) {
	return b.encodeText(paramEscaper.Replace(s))
}

func (b *Builder) encodeText(s string) ([]byte, error) {
	if b.Charset == "" {
		return []byte(s), nil
	}
	return params.Transcode(s, b.Charset)
}

func (b *Builder) encodeValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return b.encodeText(val)
	}
	s, err := params.Stringify(v)
	if err != nil {
		return nil, err
	}
	return b.encodeText(s)
}

func newBoundary(parts []part) (string, error) {
	for i := 0; i < maxBoundaryAttempts; i++ {
		boundary := "----------" + strings.ReplaceAll(uuid.NewString(), "-", "")
		if !collides(boundary, parts) {
			return boundary, nil
		}
	}
	return "", &params.EncodingError{Reason: "could not find a boundary absent from the body"}
}

func collides(boundary string, parts []part) bool {
	needle := []byte(boundary)
	for _, p := range parts {
		if bytes.Contains(p.name, needle) || bytes.Contains(p.value, needle) {
			return true
		}
		if p.upload != nil && (bytes.Contains(p.upload.Content, needle) ||
			bytes.Contains(p.fileName, needle)) {
			return true
		}
	}
	return false
}

func guessByExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return DefaultContentType
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return DefaultContentType
	}
	return mediaType(t)
}

func mediaType(t string) string {
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return mt
}
