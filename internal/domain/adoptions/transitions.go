package adoptions

import "petmatch/internal/session"

// Transition es la máquina de estados: solo pendiente -> aceptada y
// pendiente -> rechazada. Desde un estado terminal no se sale.
func Transition(current, target Status) (Status, error) {
	if !current.Valid() {
		return current, ErrInvalidInput
	}
	if target != StatusAccepted && target != StatusRejected {
		return current, ErrInvalidInput
	}
	if current.Terminal() {
		return current, ErrTerminal
	}
	return target, nil
}

// CanDecide: solo el refugio dueño del anuncio acepta o rechaza.
func CanDecide(s session.Session, r Request) bool {
	return s.IsShelter() && s.PrincipalID == r.ShelterID
}
