package pets

import "petmatch/internal/session"

// CanManage: solo el refugio que publicó el anuncio lo edita o lo borra.
func CanManage(role session.Role, principalID string, p Pet) bool {
	return role == session.RoleShelter && principalID != "" && principalID == p.ShelterID
}

// PermissionsFor calcula los permisos de quien mira el anuncio. Un visitante
// anónimo no tiene ninguno.
func PermissionsFor(s session.Session, p Pet) Permissions {
	if !s.Authenticated() {
		return Permissions{}
	}
	manage := CanManage(s.Role, s.PrincipalID, p)
	return Permissions{
		CanEdit:            manage,
		CanDelete:          manage,
		CanRequestAdoption: s.Role == session.RoleAdopter,
	}
}
