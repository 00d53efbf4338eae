package accounts

import (
	"context"

	"petmatch/internal/session"
)

type Repository interface {
	// CreateAccount escribe perfil y registro de rol juntos: o quedan los
	// dos o ninguno.
	CreateAccount(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error

	// El registro de rol vive aparte del perfil.
	GetRole(ctx context.Context, principalID string) (session.Role, error)
}
