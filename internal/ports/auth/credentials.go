package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// Credential es lo que guarda el proveedor local por cuenta.
type Credential struct {
	PrincipalID  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore persiste credenciales. Email es único (ya normalizado).
type CredentialStore interface {
	CreateCredential(ctx context.Context, c Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
	// DeleteCredential es idempotente: borrar algo que no existe no es error.
	DeleteCredential(ctx context.Context, principalID string) error
}
