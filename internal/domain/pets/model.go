package pets

import (
	"strings"
	"time"

	"petmatch/internal/platform/validation"
)

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

// ParseSpecies acepta el valor canónico o el nombre en castellano del
// formulario (Perro/Gato/Otro), sin distinguir mayúsculas.
func ParseSpecies(s string) (Species, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dog", "perro":
		return SpeciesDog, true
	case "cat", "gato":
		return SpeciesCat, true
	case "other", "otro":
		return SpeciesOther, true
	}
	return "", false
}

func init() {
	validation.RegisterRule("species", "Especie inválida", func(s string) bool {
		_, ok := ParseSpecies(s)
		return ok
	})
}

// Pet es un anuncio de adopción publicado por un refugio.
type Pet struct {
	ID string

	Name        string
	Species     Species
	Breed       string
	Age         string // texto libre ("2 años")
	Description string

	PhotoURL string
	PhotoKey string

	Traits []string

	// ShelterID no cambia nunca después de publicar.
	ShelterID   string
	ShelterName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter es el estado de los filtros del listado. Vacío = sin filtro.
type Filter struct {
	Species Species
	Shelter string // nombre del refugio
	Text    string
}

// Options son los valores posibles para los selectores de filtro.
type Options struct {
	Species  []Species
	Shelters []string
}

// Permissions es lo que puede hacer quien mira un anuncio.
type Permissions struct {
	CanEdit            bool
	CanDelete          bool
	CanRequestAdoption bool
}
