package adoptions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)

	// Listados ordenados de más nuevo a más viejo.
	ListByAdopter(ctx context.Context, adopterID string) ([]Request, error)
	ListByShelter(ctx context.Context, shelterID string) ([]Request, error)
	ListByPet(ctx context.Context, petID string) ([]Request, error)

	// UpdateStatus es un compare-and-set: solo escribe si el estado guardado
	// sigue siendo from. Si no, devuelve ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Request, error)

	// MarkPetUnavailable devuelve las solicitudes de la mascota tal como
	// quedan guardadas tras la escritura, de más nueva a más vieja.
	MarkPetUnavailable(ctx context.Context, petID string, at time.Time) ([]Request, error)
	DeleteByPet(ctx context.Context, petID string) error
}
