package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotConfigured = errors.New("blob store not configured")

// Object es el archivo a subir (pass-through, sin procesamiento).
type Object struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored es el resultado de una subida: Key permite borrar, URL es la
// dirección estable que se guarda en el documento.
type Stored struct {
	Key string
	URL string
}

type Store interface {
	Put(ctx context.Context, key string, obj Object) (Stored, error)
	Delete(ctx context.Context, key string) error
}
