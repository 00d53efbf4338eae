package session

import (
	"context"
	"strings"
)

type Role string

const (
	RoleAdopter Role = "adoptante"
	RoleShelter Role = "refugio"
)

// DefaultRole se usa cuando no hay registro de rol o la lectura falla.
const DefaultRole = RoleAdopter

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdopter:
		return RoleAdopter, true
	case RoleShelter:
		return RoleShelter, true
	}
	return "", false
}

func (r Role) Valid() bool {
	return r == RoleAdopter || r == RoleShelter
}

// Session es el contexto explícito de quien llama: se resuelve una vez por
// request (principal + rol) y se pasa a cada handler/service.
type Session struct {
	PrincipalID string
	Email       string
	Role        Role
	DisplayName string
}

func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.PrincipalID) != ""
}

func (s Session) IsShelter() bool {
	return s.Authenticated() && s.Role == RoleShelter
}

func (s Session) IsAdopter() bool {
	return s.Authenticated() && s.Role == RoleAdopter
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext devuelve la sesión; ok=false si el request es anónimo.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || !s.Authenticated() {
		return Session{}, false
	}
	return s, true
}
