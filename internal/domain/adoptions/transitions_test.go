package adoptions

import (
	"errors"
	"testing"

	"petmatch/internal/session"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     Status
		err      error
	}{
		{StatusPending, StatusAccepted, StatusAccepted, nil},
		{StatusPending, StatusRejected, StatusRejected, nil},
		{StatusAccepted, StatusRejected, StatusAccepted, ErrTerminal},
		{StatusAccepted, StatusAccepted, StatusAccepted, ErrTerminal},
		{StatusRejected, StatusAccepted, StatusRejected, ErrTerminal},
		{StatusPending, StatusPending, StatusPending, ErrInvalidInput},
		{StatusPending, Status("cancelada"), StatusPending, ErrInvalidInput},
		{Status("??"), StatusAccepted, Status("??"), ErrInvalidInput},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.to)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s -> %s: err=%v want %v", tc.from, tc.to, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("%s -> %s: got %s want %s", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanDecide(t *testing.T) {
	r := Request{ShelterID: "S1", AdopterID: "U1"}

	cases := []struct {
		name string
		sess session.Session
		want bool
	}{
		{"owning shelter", session.Session{PrincipalID: "S1", Role: session.RoleShelter}, true},
		{"other shelter", session.Session{PrincipalID: "S2", Role: session.RoleShelter}, false},
		{"adopter with shelter id", session.Session{PrincipalID: "S1", Role: session.RoleAdopter}, false},
		{"requesting adopter", session.Session{PrincipalID: "U1", Role: session.RoleAdopter}, false},
		{"anonymous", session.Session{}, false},
	}
	for _, tc := range cases {
		if got := CanDecide(tc.sess, r); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseOrphanPolicy(t *testing.T) {
	if ParseOrphanPolicy("Cascade") != OrphanCascade {
		t.Fatalf("expected cascade")
	}
	if ParseOrphanPolicy("") != OrphanKeep || ParseOrphanPolicy("whatever") != OrphanKeep {
		t.Fatalf("expected keep as default")
	}
}
