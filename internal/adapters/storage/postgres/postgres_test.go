package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"petmatch/internal/domain/accounts"
	"petmatch/internal/domain/adoptions"
	"petmatch/internal/domain/pets"
	"petmatch/internal/ports/auth"
	"petmatch/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Necesitan una base real: PG_TEST_DSN=postgres://.../petmatch_test?sslmode=disable
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, nil))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPetsRepo_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewPetsRepo(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := pets.Pet{
		ID: uuid.NewString(), Name: "Luna", Species: pets.SpeciesDog, Breed: "Labrador",
		Age: "2 años", Description: "Juguetona", PhotoURL: "https://x/y.jpg",
		Traits: []string{"Vacunado"}, ShelterID: "s1", ShelterName: "Patitas",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Traits, got.Traits)
	assert.Equal(t, pets.SpeciesDog, got.Species)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestAdoptionsRepo_CompareAndSet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewAdoptionsRepo(db)

	now := time.Now().UTC()
	req := adoptions.Request{
		ID: uuid.NewString(), PetID: uuid.NewString(), PetName: "Luna",
		AdopterID: "a1", ShelterID: "s1", Status: adoptions.StatusPending,
		PetAvailable: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, req))

	updated, err := repo.UpdateStatus(ctx, req.ID, adoptions.StatusPending, adoptions.StatusAccepted, now)
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusAccepted, updated.Status)

	_, err = repo.UpdateStatus(ctx, req.ID, adoptions.StatusPending, adoptions.StatusRejected, now)
	assert.ErrorIs(t, err, adoptions.ErrStatusConflict)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), adoptions.StatusPending, adoptions.StatusRejected, now)
	assert.ErrorIs(t, err, adoptions.ErrNotFound)

	require.NoError(t, repo.DeleteByPet(ctx, req.PetID))
}

func TestAccountsRepo_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewAccountsRepo(db)

	email := uuid.NewString() + "@mail.com"
	c := auth.Credential{PrincipalID: uuid.NewString(), Email: email, PasswordHash: "h", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateCredential(ctx, c))

	c.PrincipalID = uuid.NewString()
	assert.ErrorIs(t, repo.CreateCredential(ctx, c), auth.ErrEmailTaken)
}

func TestAccountsRepo_CreateAccountWritesRole(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewAccountsRepo(db)

	now := time.Now().UTC()
	p := accounts.Profile{
		ID: uuid.NewString(), Role: session.RoleShelter, Email: uuid.NewString() + "@mail.com",
		Shelter: &accounts.ShelterFields{ShelterName: "Patitas"}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateAccount(ctx, p))

	role, err := repo.GetRole(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, session.RoleShelter, role)

	// Un segundo alta con el mismo id falla entera.
	require.Error(t, repo.CreateAccount(ctx, p))
}

func TestAccountsRepo_DeleteCredentialFreesEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewAccountsRepo(db)

	c := auth.Credential{PrincipalID: uuid.NewString(), Email: uuid.NewString() + "@mail.com", PasswordHash: "h", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateCredential(ctx, c))
	require.NoError(t, repo.DeleteCredential(ctx, c.PrincipalID))

	_, err := repo.GetCredentialByEmail(ctx, c.Email)
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
	require.NoError(t, repo.DeleteCredential(ctx, c.PrincipalID))
}
