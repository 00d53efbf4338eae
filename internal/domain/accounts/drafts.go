package accounts

import (
	"strings"

	"petmatch/internal/platform/validation"
	"petmatch/internal/session"
)

// Draft es el formulario de registro. Es una unión etiquetada: cada rol
// tiene su propio tipo y no se comparte estado entre ellos.
type Draft interface {
	Role() session.Role
	Contact() ContactFields
	Validate() error

	toProfile(id string) Profile
}

// ContactFields son los campos comunes a ambos roles.
type ContactFields struct {
	Email    string `json:"email" validate:"required,emailaddr"`
	Phone    string `json:"phone" validate:"required,min=10"`
	Address  string `json:"address" validate:"required"`
	Province string `json:"province" validate:"required,provincia"`
}

func (c ContactFields) normalized() ContactFields {
	return ContactFields{
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:    strings.TrimSpace(c.Phone),
		Address:  strings.TrimSpace(c.Address),
		Province: strings.TrimSpace(c.Province),
	}
}

type AdopterDraft struct {
	ContactFields
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	NationalID string `json:"national_id" validate:"required,dni"`
}

type ShelterDraft struct {
	ContactFields
	ShelterName string `json:"shelter_name" validate:"required"`
	Website     string `json:"website" validate:"omitempty,url"`
}

func (d AdopterDraft) Role() session.Role      { return session.RoleAdopter }
func (d AdopterDraft) Contact() ContactFields { return d.ContactFields.normalized() }

func (d AdopterDraft) Validate() error {
	n := d
	n.ContactFields = d.ContactFields.normalized()
	n.FirstName = strings.TrimSpace(d.FirstName)
	n.LastName = strings.TrimSpace(d.LastName)
	n.NationalID = strings.ToUpper(strings.TrimSpace(d.NationalID))
	return validation.Struct(n)
}

func (d AdopterDraft) toProfile(id string) Profile {
	c := d.ContactFields.normalized()
	return Profile{
		ID:       id,
		Role:     session.RoleAdopter,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		Province: c.Province,
		Adopter: &AdopterFields{
			FirstName:  strings.TrimSpace(d.FirstName),
			LastName:   strings.TrimSpace(d.LastName),
			NationalID: strings.ToUpper(strings.TrimSpace(d.NationalID)),
		},
	}
}

func (d ShelterDraft) Role() session.Role      { return session.RoleShelter }
func (d ShelterDraft) Contact() ContactFields { return d.ContactFields.normalized() }

func (d ShelterDraft) Validate() error {
	n := d
	n.ContactFields = d.ContactFields.normalized()
	n.ShelterName = strings.TrimSpace(d.ShelterName)
	n.Website = strings.TrimSpace(d.Website)
	return validation.Struct(n)
}

func (d ShelterDraft) toProfile(id string) Profile {
	c := d.ContactFields.normalized()
	return Profile{
		ID:       id,
		Role:     session.RoleShelter,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		Province: c.Province,
		Shelter: &ShelterFields{
			ShelterName: strings.TrimSpace(d.ShelterName),
			Website:     strings.TrimSpace(d.Website),
		},
	}
}

// ProfilePatch es la edición de perfil. nil = no tocar.
type ProfilePatch struct {
	Phone    *string
	Address  *string
	Province *string

	// adoptante
	FirstName  *string
	LastName   *string
	NationalID *string

	// refugio
	ShelterName *string
	Website     *string
}

// apply devuelve el perfil resultante y si algún campo cambió respecto al
// snapshot cargado. Los campos de otro rol se rechazan.
func (pp ProfilePatch) apply(p Profile) (Profile, bool, error) {
	errs := validation.Errors{}
	out := p
	changed := false

	set := func(dst *string, v *string, normalize func(string) string) {
		if v == nil {
			return
		}
		nv := normalize(*v)
		if nv != *dst {
			*dst = nv
			changed = true
		}
	}
	trim := strings.TrimSpace

	set(&out.Phone, pp.Phone, trim)
	set(&out.Address, pp.Address, trim)
	set(&out.Province, pp.Province, trim)

	switch p.Role {
	case session.RoleShelter:
		if pp.FirstName != nil || pp.LastName != nil || pp.NationalID != nil {
			errs.Add("role", "Campos de adoptante no aplican a un refugio")
		}
		sh := ShelterFields{}
		if p.Shelter != nil {
			sh = *p.Shelter
		}
		set(&sh.ShelterName, pp.ShelterName, trim)
		set(&sh.Website, pp.Website, trim)
		out.Shelter = &sh

		if err := validation.Struct(shelterCheck{
			Phone: out.Phone, Address: out.Address, Province: out.Province,
			ShelterName: sh.ShelterName, Website: sh.Website,
		}); err != nil {
			if ve, ok := validation.AsErrors(err); ok {
				for k, v := range ve {
					errs.Add(k, v)
				}
			}
		}
	default:
		if pp.ShelterName != nil || pp.Website != nil {
			errs.Add("role", "Campos de refugio no aplican a un adoptante")
		}
		ad := AdopterFields{}
		if p.Adopter != nil {
			ad = *p.Adopter
		}
		set(&ad.FirstName, pp.FirstName, trim)
		set(&ad.LastName, pp.LastName, trim)
		set(&ad.NationalID, pp.NationalID, func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) })
		out.Adopter = &ad

		if err := validation.Struct(adopterCheck{
			Phone: out.Phone, Address: out.Address, Province: out.Province,
			FirstName: ad.FirstName, LastName: ad.LastName, NationalID: ad.NationalID,
		}); err != nil {
			if ve, ok := validation.AsErrors(err); ok {
				for k, v := range ve {
					errs.Add(k, v)
				}
			}
		}
	}

	if err := errs.Err(); err != nil {
		return Profile{}, false, err
	}
	return out, changed, nil
}

type adopterCheck struct {
	Phone      string `json:"phone" validate:"required,min=10"`
	Address    string `json:"address" validate:"required"`
	Province   string `json:"province" validate:"required,provincia"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	NationalID string `json:"national_id" validate:"required,dni"`
}

type shelterCheck struct {
	Phone       string `json:"phone" validate:"required,min=10"`
	Address     string `json:"address" validate:"required"`
	Province    string `json:"province" validate:"required,provincia"`
	ShelterName string `json:"shelter_name" validate:"required"`
	Website     string `json:"website" validate:"omitempty,url"`
}
