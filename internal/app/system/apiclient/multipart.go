package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is one file in a multipart upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Files is a multipart/form-data body that sends every file under one field.
type Files struct {
	Field string
	Files []File

	contentType string
}

func (f *Files) ContentType() string {
	// The boundary is only known once Reader has run.
	if f.contentType == "" {
		return "multipart/form-data"
	}
	return f.contentType
}

func (f *Files) Reader() (io.Reader, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, sanitizeFilename(file.Name)))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	f.contentType = w.FormDataContentType()
	return &buf, nil
}

func sanitizeFilename(name string) string {
	name = strings.NewReplacer("\r", "", "\n", "", `"`, "").Replace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "upload"
	}
	return name
}
