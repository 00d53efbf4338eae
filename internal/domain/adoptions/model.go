package adoptions

import (
	"strings"
	"time"
)

// Status es el estado de una solicitud. pendiente es el inicial; aceptada y
// rechazada son terminales.
// @Enum pendiente, aceptada, rechazada
type Status string

const (
	StatusPending  Status = "pendiente"
	StatusAccepted Status = "aceptada"
	StatusRejected Status = "rechazada"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Request es una solicitud de adopción. Nombre de la mascota, refugio y
// contacto del adoptante son una copia al momento de crearla: no siguen
// cambios posteriores de los documentos de origen.
type Request struct {
	ID string

	PetID   string
	PetName string

	AdopterID    string
	AdopterName  string
	AdopterEmail string
	AdopterPhone string

	ShelterID   string
	ShelterName string

	Status Status

	// PetAvailable pasa a false si el anuncio se borra con la política keep.
	PetAvailable bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrphanPolicy decide qué pasa con las solicitudes de un anuncio borrado.
type OrphanPolicy string

const (
	OrphanKeep    OrphanPolicy = "keep"
	OrphanCascade OrphanPolicy = "cascade"
)

// ParseOrphanPolicy: cualquier valor desconocido es keep.
func ParseOrphanPolicy(s string) OrphanPolicy {
	if OrphanPolicy(strings.ToLower(strings.TrimSpace(s))) == OrphanCascade {
		return OrphanCascade
	}
	return OrphanKeep
}
