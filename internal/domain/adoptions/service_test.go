package adoptions

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/domain/accounts"
	"petmatch/internal/domain/pets"
	"petmatch/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Request

	// beforeUpdate simula otra escritura que gana la carrera.
	beforeUpdate func(id string)
	// beforeMark simula un cambio de estado entre la lectura y el marcado.
	beforeMark func(petID string)
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Request{}} }

func (r *testRepo) Create(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID] = req
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *testRepo) list(match func(Request) bool) []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, 0)
	for _, req := range r.byID {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *testRepo) ListByAdopter(_ context.Context, id string) ([]Request, error) {
	return r.list(func(req Request) bool { return req.AdopterID == id }), nil
}

func (r *testRepo) ListByShelter(_ context.Context, id string) ([]Request, error) {
	return r.list(func(req Request) bool { return req.ShelterID == id }), nil
}

func (r *testRepo) ListByPet(_ context.Context, id string) ([]Request, error) {
	return r.list(func(req Request) bool { return req.PetID == id }), nil
}

func (r *testRepo) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) (Request, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if req.Status != from {
		return Request{}, ErrStatusConflict
	}
	req.Status = to
	req.UpdatedAt = at
	r.byID[id] = req
	return req, nil
}

func (r *testRepo) MarkPetUnavailable(_ context.Context, petID string, at time.Time) ([]Request, error) {
	if r.beforeMark != nil {
		r.beforeMark(petID)
	}
	r.mu.Lock()
	for id, req := range r.byID {
		if req.PetID == petID {
			req.PetAvailable = false
			req.UpdatedAt = at
			r.byID[id] = req
		}
	}
	r.mu.Unlock()
	return r.list(func(req Request) bool { return req.PetID == petID }), nil
}

func (r *testRepo) DeleteByPet(_ context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.byID {
		if req.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

type testPets map[string]pets.Pet

func (p testPets) Get(_ context.Context, id string) (pets.Pet, error) {
	pet, ok := p[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

type testContacts map[string]accounts.Contact

func (c testContacts) Contact(_ context.Context, id, fallbackEmail string) accounts.Contact {
	if v, ok := c[id]; ok {
		return v
	}
	return accounts.Contact{Name: fallbackEmail, Email: fallbackEmail}
}

var (
	u1 = session.Session{PrincipalID: "U1", Email: "u1@example.com", Role: session.RoleAdopter}
	u2 = session.Session{PrincipalID: "U2", Email: "u2@example.com", Role: session.RoleAdopter}
	s1 = session.Session{PrincipalID: "S1", Role: session.RoleShelter, DisplayName: "Patitas"}
	s2 = session.Session{PrincipalID: "S2", Role: session.RoleShelter, DisplayName: "Bigotes"}
)

type fixture struct {
	svc  *Service
	repo *testRepo
	hub  *changefeed.Hub
	tick time.Time
}

func newFixture() *fixture {
	f := &fixture{repo: newTestRepo(), hub: changefeed.NewHub(), tick: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	petLookup := testPets{
		"P1": {ID: "P1", Name: "Luna", ShelterID: "S1", ShelterName: "Patitas"},
		"P2": {ID: "P2", Name: "Michi", ShelterID: "S2", ShelterName: "Bigotes"},
	}
	contacts := testContacts{
		"U1": {Name: "Ana García", Email: "ana@example.com", Phone: "34600111222"},
	}
	f.svc = NewService(f.repo, petLookup, contacts, f.hub, newTestIdem(), nil)
	f.svc.now = func() time.Time {
		f.tick = f.tick.Add(time.Minute)
		return f.tick
	}
	return f
}

type testIdem struct {
	mu   sync.Mutex
	keys map[string]string
}

func newTestIdem() *testIdem { return &testIdem{keys: map[string]string{}} }

func (s *testIdem) Reserve(_ context.Context, scope, key string, _ time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.keys[scope+"|"+key]; ok {
		return id, false, nil
	}
	s.keys[scope+"|"+key] = ""
	return "", true, nil
}

func (s *testIdem) Complete(_ context.Context, scope, key, id string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[scope+"|"+key] = id
	return nil
}

func (s *testIdem) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, scope+"|"+key)
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestCreate_AdopterRequestsPet(t *testing.T) {
	f := newFixture()

	r, err := f.svc.Create(context.Background(), u1, "P1", "")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "U1", r.AdopterID)
	assert.Equal(t, "S1", r.ShelterID)
	assert.Equal(t, "P1", r.PetID)
	assert.Equal(t, "Luna", r.PetName)
	assert.Equal(t, "Patitas", r.ShelterName)
	assert.Equal(t, "Ana García", r.AdopterName)
	assert.Equal(t, "34600111222", r.AdopterPhone)
	assert.True(t, r.PetAvailable)
	assert.Len(t, f.repo.byID, 1)
}

func TestCreate_ContactFallsBackToEmail(t *testing.T) {
	f := newFixture()

	r, err := f.svc.Create(context.Background(), u2, "P1", "")
	require.NoError(t, err)
	assert.Equal(t, "u2@example.com", r.AdopterEmail)
	assert.Equal(t, "u2@example.com", r.AdopterName)
	assert.Empty(t, r.AdopterPhone)
}

func TestCreate_Preconditions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, session.Session{}, "P1", "")
	assert.ErrorIs(t, err, ErrSignInRequired)

	_, err = f.svc.Create(ctx, s1, "P1", "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Create(ctx, u1, "nope", "")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.repo.byID)
}

func TestCreate_IdempotencyKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.svc.Create(ctx, u1, "P1", "click-1")
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, u1, "P1", "click-1")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, f.repo.byID, 1)

	_, err = f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)
	assert.Len(t, f.repo.byID, 2)
}

func TestDecide_AcceptThenSecondCallRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)

	accepted, err := f.svc.Accept(ctx, s1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)

	_, err = f.svc.Accept(ctx, s1, r.ID)
	assert.ErrorIs(t, err, ErrTerminal)
	_, err = f.svc.Reject(ctx, s1, r.ID)
	assert.ErrorIs(t, err, ErrTerminal)

	stored, _ := f.repo.GetByID(ctx, r.ID)
	assert.Equal(t, StatusAccepted, stored.Status)
}

func TestDecide_OnlyOwningShelter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)

	for _, sess := range []session.Session{s2, u1, {PrincipalID: "S1", Role: session.RoleAdopter}} {
		_, err := f.svc.Reject(ctx, sess, r.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	stored, _ := f.repo.GetByID(ctx, r.ID)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestDecide_LostRaceIsTerminal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)

	// Otra decisión se confirma entre la lectura y el compare-and-set.
	f.repo.beforeUpdate = func(id string) {
		f.repo.mu.Lock()
		req := f.repo.byID[id]
		req.Status = StatusRejected
		f.repo.byID[id] = req
		f.repo.mu.Unlock()
	}

	_, err = f.svc.Accept(ctx, s1, r.ID)
	assert.ErrorIs(t, err, ErrTerminal)

	stored, _ := f.repo.GetByID(ctx, r.ID)
	assert.Equal(t, StatusRejected, stored.Status)
}

func TestDecide_PublishesOnlyAfterWrite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)

	events, cancel := f.hub.Subscribe(changefeed.TopicAdoptionRequests)
	defer cancel()

	_, err = f.svc.Reject(ctx, s2, r.ID)
	require.Error(t, err)

	_, err = f.svc.Reject(ctx, s1, r.ID)
	require.NoError(t, err)

	e := <-events
	assert.Equal(t, r.ID, e.ID)
	assert.Contains(t, string(e.Payload), `"status":"rechazada"`)

	select {
	case extra := <-events:
		t.Fatalf("unexpected event %+v", extra)
	default:
	}
}

func TestListMine_RoleScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, u1, "P2", "")
	require.NoError(t, err)
	c, err := f.svc.Create(ctx, u2, "P1", "")
	require.NoError(t, err)

	mine, err := f.svc.ListMine(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, requestIDs(mine))

	received, err := f.svc.ListMine(ctx, s1)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, requestIDs(received))

	_, err = f.svc.ListMine(ctx, session.Session{})
	assert.ErrorIs(t, err, ErrSignInRequired)

	assert.True(t, InScope(s2, b))
	assert.False(t, InScope(s2, a))
	assert.False(t, InScope(u2, a))
}

func TestOnPetDeleted_Policies(t *testing.T) {
	t.Run("keep marks requests", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		r, err := f.svc.Create(ctx, u1, "P1", "")
		require.NoError(t, err)

		require.NoError(t, f.svc.OnPetDeleted(ctx, "P1"))
		stored, err := f.repo.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.False(t, stored.PetAvailable)
		assert.Equal(t, StatusPending, stored.Status)
	})

	t.Run("cascade deletes requests", func(t *testing.T) {
		f := newFixture()
		f.svc.SetOrphanPolicy(OrphanCascade)
		ctx := context.Background()
		_, err := f.svc.Create(ctx, u1, "P1", "")
		require.NoError(t, err)
		keep, err := f.svc.Create(ctx, u1, "P2", "")
		require.NoError(t, err)

		require.NoError(t, f.svc.OnPetDeleted(ctx, "P1"))
		assert.Len(t, f.repo.byID, 1)
		assert.Contains(t, f.repo.byID, keep.ID)
	})
}

func TestOnPetDeleted_PublishesStoredState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, u1, "P1", "")
	require.NoError(t, err)

	// El refugio acepta entre la lectura de solicitudes y el marcado.
	f.repo.beforeMark = func(string) {
		_, err := f.repo.UpdateStatus(ctx, r.ID, StatusPending, StatusAccepted, f.tick)
		require.NoError(t, err)
	}

	events, cancel := f.hub.Subscribe(changefeed.TopicAdoptionRequests)
	defer cancel()

	require.NoError(t, f.svc.OnPetDeleted(ctx, "P1"))

	e := <-events
	assert.Equal(t, r.ID, e.ID)
	assert.Equal(t, changefeed.KindUpsert, e.Kind)
	assert.Contains(t, string(e.Payload), `"status":"aceptada"`)
	assert.Contains(t, string(e.Payload), `"pet_available":false`)

	select {
	case extra := <-events:
		t.Fatalf("unexpected event %+v", extra)
	default:
	}
}

func requestIDs(items []Request) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.ID)
	}
	return out
}
