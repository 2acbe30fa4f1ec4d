package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

const (
	msgBodyTooLarge = "request.body_too_large"

	// formOverhead covers the text fields sent next to an upload.
	formOverhead = 1 << 20
	formMemory   = 8 << 20
)

// Upload is a file field read fully into memory.
type Upload struct {
	Filename string
	Data     []byte
}

// Form is a decoded multipart or urlencoded request body.
type Form struct {
	values url.Values
	files  map[string][]*multipart.FileHeader
}

// MaxFormBody is the largest body ParseForm accepts for uploads of at most
// maxUpload bytes.
func MaxFormBody(maxUpload int64) int64 {
	return maxUpload + formOverhead
}

// ParseForm decodes r as a form whose uploads are at most maxUpload bytes.
// Bodies past the limit are rejected before any field is read.
func ParseForm(r *http.Request, maxUpload int64) (*Form, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxFormBody(maxUpload))
	err := r.ParseMultipartForm(formMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgBodyTooLarge)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidBody)
	}

	form := &Form{values: r.Form}
	if r.MultipartForm != nil {
		form.files = r.MultipartForm.File
	}
	return form, nil
}

// Value returns the raw field value, or "" when the field is absent.
func (f *Form) Value(key string) string {
	return f.values.Get(key)
}

// Optional returns nil when the field was not sent at all.
func (f *Form) Optional(key string) *string {
	if _, ok := f.values[key]; !ok {
		return nil
	}
	value := f.values.Get(key)
	return &value
}

// File reads the upload sent under key. At most limit+1 bytes are read so
// callers can still tell that a file was too large.
func (f *Form) File(key string, limit int64) (*Upload, error) {
	headers := f.files[key]
	if len(headers) == 0 {
		return nil, nil
	}
	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidBody)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidBody)
	}
	return &Upload{Filename: header.Filename, Data: data}, nil
}
