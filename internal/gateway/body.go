package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"

	"github.com/jetdesk/jetadmin/internal/domain"
)

type jsonBody struct {
	v any
}

// JSON returns a body that encodes v as application/json.
func JSON(v any) domain.Body {
	return jsonBody{v: v}
}

func (b jsonBody) ContentType() string { return "application/json" }

func (b jsonBody) Reader() (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Multipart builds a multipart/form-data body. The first error sticks and is
// returned from Reader.
type Multipart struct {
	buf    bytes.Buffer
	w      *multipart.Writer
	err    error
	closed bool
}

// NewMultipart returns an empty multipart body.
func NewMultipart() *Multipart {
	m := &Multipart{}
	m.w = multipart.NewWriter(&m.buf)
	return m
}

// Field writes a plain text field.
func (m *Multipart) Field(name, value string) *Multipart {
	if m.err != nil || m.closed {
		return m
	}
	m.err = m.w.WriteField(name, value)
	return m
}

// OptionalField writes name only when value is non-empty.
func (m *Multipart) OptionalField(name, value string) *Multipart {
	if value == "" {
		return m
	}
	return m.Field(name, value)
}

// JSONField writes v encoded as a JSON string field.
func (m *Multipart) JSONField(name string, v any) *Multipart {
	if m.err != nil || m.closed {
		return m
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.err = err
		return m
	}
	m.err = m.w.WriteField(name, string(data))
	return m
}

// File copies r into a file part.
func (m *Multipart) File(field, filename string, r io.Reader) *Multipart {
	if m.err != nil || m.closed {
		return m
	}
	part, err := m.w.CreateFormFile(field, filename)
	if err != nil {
		m.err = err
		return m
	}
	_, m.err = io.Copy(part, r)
	return m
}

// ContentType includes the multipart boundary.
func (m *Multipart) ContentType() string {
	return m.w.FormDataContentType()
}

// Reader finalizes the body. It may be called more than once.
func (m *Multipart) Reader() (io.Reader, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.closed {
		if err := m.w.Close(); err != nil {
			m.err = err
			return nil, err
		}
		m.closed = true
	}
	return bytes.NewReader(m.buf.Bytes()), nil
}
