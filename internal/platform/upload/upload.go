package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"petmatch/internal/ports/blob"
)

// DefaultMaxBytes es el límite si el caller no define uno.
const DefaultMaxBytes = 10 << 20

var ErrTooLarge = errors.New("upload too large")

// IsMultipart indica si el request viene como multipart/form-data.
func IsMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.EqualFold(mt, "multipart/form-data")
}

// ParseForm parsea el multipart limitando el tamaño total.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrTooLarge
		}
		return fmt.Errorf("parse multipart: %w", err)
	}
	return nil
}

// File lee el archivo del campo indicado. Devuelve nil, nil si no vino.
// El contenido se copia a memoria (el form ya está acotado por ParseForm).
func File(r *http.Request, field string) (*blob.Object, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, fh, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(b) == 0 {
		return nil, nil
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(b)
	}

	return &blob.Object{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        int64(len(b)),
		Body:        bytes.NewReader(b),
	}, nil
}

// Value devuelve el valor de texto de un campo del form, recortado.
func Value(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}

// OptionalValue devuelve nil si el campo no vino en el form.
func OptionalValue(r *http.Request, field string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vs, ok := r.MultipartForm.Value[field]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}
