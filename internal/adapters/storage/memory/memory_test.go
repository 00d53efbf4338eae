package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"petmatch/internal/domain/accounts"
	"petmatch/internal/domain/adoptions"
	"petmatch/internal/domain/pets"
	"petmatch/internal/ports/auth"
	"petmatch/internal/session"
)

func TestPetRepo_ListNewestFirstAndCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"p1", "p2", "p3"} {
		p := pets.Pet{ID: id, ShelterID: "s1", Traits: []string{"a"}, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || items[0].ID != "p3" || items[2].ID != "p1" {
		t.Fatalf("unexpected order: %+v", items)
	}

	// mutar el resultado no cambia lo guardado
	items[0].Traits[0] = "zzz"
	got, _ := repo.GetByID(ctx, "p3")
	if got.Traits[0] != "a" {
		t.Fatalf("repo leaked internal slice")
	}

	if err := repo.Create(ctx, pets.Pet{ID: "p1"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestPetRepo_UpdateKeepsShelter(t *testing.T) {
	ctx := context.Background()
	repo := NewPetRepo()

	_ = repo.Create(ctx, pets.Pet{ID: "p1", ShelterID: "s1", Name: "Luna"})
	if err := repo.Update(ctx, pets.Pet{ID: "p1", ShelterID: "s2", Name: "Sol"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetByID(ctx, "p1")
	if got.ShelterID != "s1" || got.Name != "Sol" {
		t.Fatalf("unexpected pet after update: %+v", got)
	}

	if err := repo.Update(ctx, pets.Pet{ID: "nope"}); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("expected pets.ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "nope"); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("expected pets.ErrNotFound, got %v", err)
	}
}

func TestAccountsRepo_ProfilesRolesCredentials(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepo()

	if _, err := repo.GetRole(ctx, "u1"); !errors.Is(err, accounts.ErrNotFound) {
		t.Fatalf("expected accounts.ErrNotFound, got %v", err)
	}

	p := accounts.Profile{ID: "u1", Role: session.RoleShelter, Shelter: &accounts.ShelterFields{ShelterName: "Patitas"}}
	if err := repo.CreateAccount(ctx, p); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if r, _ := repo.GetRole(ctx, "u1"); r != session.RoleShelter {
		t.Fatalf("role not written with profile, got %q", r)
	}
	if err := repo.CreateAccount(ctx, p); err == nil {
		t.Fatalf("expected duplicate account error")
	}
	p.Shelter.ShelterName = "otro"
	got, _ := repo.GetProfile(ctx, "u1")
	if got.Shelter.ShelterName != "Patitas" {
		t.Fatalf("profile aliasing caller struct")
	}

	c := auth.Credential{PrincipalID: "u1", Email: "a@mail.com", PasswordHash: "h"}
	if err := repo.CreateCredential(ctx, c); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	if err := repo.CreateCredential(ctx, c); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := repo.GetCredentialByEmail(ctx, "b@mail.com"); !errors.Is(err, auth.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}

	if err := repo.DeleteCredential(ctx, "u1"); err != nil {
		t.Fatalf("delete credential: %v", err)
	}
	if _, err := repo.GetCredentialByEmail(ctx, "a@mail.com"); !errors.Is(err, auth.ErrCredentialNotFound) {
		t.Fatalf("credential still present after delete: %v", err)
	}
	if err := repo.DeleteCredential(ctx, "u1"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if err := repo.CreateCredential(ctx, c); err != nil {
		t.Fatalf("email should be free again: %v", err)
	}
}

func TestAdoptionsRepo_CompareAndSetAndOrphans(t *testing.T) {
	ctx := context.Background()
	repo := NewAdoptionsRepo()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	reqs := []adoptions.Request{
		{ID: "r1", PetID: "p1", AdopterID: "a1", ShelterID: "s1", Status: adoptions.StatusPending, PetAvailable: true, CreatedAt: now},
		{ID: "r2", PetID: "p1", AdopterID: "a2", ShelterID: "s1", Status: adoptions.StatusPending, PetAvailable: true, CreatedAt: now.Add(time.Minute)},
		{ID: "r3", PetID: "p2", AdopterID: "a1", ShelterID: "s2", Status: adoptions.StatusPending, PetAvailable: true, CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, r := range reqs {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", r.ID, err)
		}
	}

	mine, _ := repo.ListByAdopter(ctx, "a1")
	if len(mine) != 2 || mine[0].ID != "r3" {
		t.Fatalf("unexpected adopter list: %+v", mine)
	}

	if _, err := repo.UpdateStatus(ctx, "r1", adoptions.StatusPending, adoptions.StatusAccepted, now); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "r1", adoptions.StatusPending, adoptions.StatusRejected, now); !errors.Is(err, adoptions.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	later := now.Add(time.Hour)
	marked, err := repo.MarkPetUnavailable(ctx, "p1", later)
	if err != nil {
		t.Fatalf("mark unavailable: %v", err)
	}
	if len(marked) != 2 || marked[0].ID != "r2" || marked[1].ID != "r1" {
		t.Fatalf("unexpected marked rows: %+v", marked)
	}
	// r1 ya estaba aceptada: la fila devuelta conserva ese estado.
	if marked[1].Status != adoptions.StatusAccepted {
		t.Fatalf("returned row lost its status: %+v", marked[1])
	}
	byPet, _ := repo.ListByPet(ctx, "p1")
	for i, r := range byPet {
		if r.PetAvailable || !r.UpdatedAt.Equal(later) {
			t.Fatalf("request %s not marked: %+v", r.ID, r)
		}
		if r != marked[i] {
			t.Fatalf("returned row differs from stored row: %+v vs %+v", marked[i], r)
		}
	}

	_ = repo.DeleteByPet(ctx, "p1")
	shelter, _ := repo.ListByShelter(ctx, "s1")
	if len(shelter) != 0 {
		t.Fatalf("expected cascade delete, got %+v", shelter)
	}
}
