package accounts

import (
	"strings"
	"time"

	"petmatch/internal/session"
)

// AdopterFields son los campos propios de un adoptante.
type AdopterFields struct {
	FirstName  string
	LastName   string
	NationalID string // DNI
}

// ShelterFields son los campos propios de un refugio.
type ShelterFields struct {
	ShelterName string
	Website     string
}

// Profile es el perfil de usuario. Exactamente uno de Adopter/Shelter viene
// seteado, según Role.
type Profile struct {
	ID   string
	Role session.Role

	Email    string
	Phone    string
	Address  string
	Province string

	PhotoURL string
	PhotoKey string

	Adopter *AdopterFields
	Shelter *ShelterFields

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Profile) DisplayName() string {
	switch {
	case p.Shelter != nil:
		return strings.TrimSpace(p.Shelter.ShelterName)
	case p.Adopter != nil:
		return strings.TrimSpace(p.Adopter.FirstName + " " + p.Adopter.LastName)
	default:
		return ""
	}
}

// Contact es el snapshot de contacto que se copia a una solicitud.
type Contact struct {
	Name  string
	Email string
	Phone string
}
