package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id string) error

	// List devuelve todos los anuncios, de más nuevo a más viejo.
	List(ctx context.Context) ([]Pet, error)
}
