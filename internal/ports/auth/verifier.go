package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Provider es el proveedor de autenticación externo: alta, login, logout
// y verificación de tokens. Los errores de negocio son *Error.
type Provider interface {
	AuthVerifier

	SignUp(ctx context.Context, email, password string) (Claims, error)
	SignIn(ctx context.Context, email, password string) (Token, Claims, error)
	SignOut(ctx context.Context, token string) error

	// DeleteAccount deshace un SignUp cuyo alta local no llegó a escribirse.
	DeleteAccount(ctx context.Context, principalID string) error
}
