package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"petmatch/internal/domain/adoptions"
)

type adoptionsRepo struct {
	mu   sync.RWMutex
	byID map[string]adoptions.Request
}

func NewAdoptionsRepo() adoptions.Repository {
	return &adoptionsRepo{byID: make(map[string]adoptions.Request)}
}

func (r *adoptionsRepo) Create(ctx context.Context, req adoptions.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(req.ID) == "" {
		return errors.New("request id required")
	}
	if _, exists := r.byID[req.ID]; exists {
		return errors.New("request already exists")
	}
	r.byID[req.ID] = req
	return nil
}

func (r *adoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return adoptions.Request{}, adoptions.ErrNotFound
	}
	return req, nil
}

func (r *adoptionsRepo) ListByAdopter(ctx context.Context, adopterID string) ([]adoptions.Request, error) {
	return r.list(func(req adoptions.Request) bool { return req.AdopterID == adopterID }), nil
}

func (r *adoptionsRepo) ListByShelter(ctx context.Context, shelterID string) ([]adoptions.Request, error) {
	return r.list(func(req adoptions.Request) bool { return req.ShelterID == shelterID }), nil
}

func (r *adoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Request, error) {
	return r.list(func(req adoptions.Request) bool { return req.PetID == petID }), nil
}

// UpdateStatus hace el compare-and-set bajo el lock de escritura.
func (r *adoptionsRepo) UpdateStatus(ctx context.Context, id string, from, to adoptions.Status, at time.Time) (adoptions.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return adoptions.Request{}, adoptions.ErrNotFound
	}
	if req.Status != from {
		return adoptions.Request{}, adoptions.ErrStatusConflict
	}
	req.Status = to
	req.UpdatedAt = at
	r.byID[id] = req
	return req, nil
}

func (r *adoptionsRepo) MarkPetUnavailable(ctx context.Context, petID string, at time.Time) ([]adoptions.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]adoptions.Request, 0)
	for id, req := range r.byID {
		if req.PetID != petID {
			continue
		}
		if req.PetAvailable {
			req.PetAvailable = false
			req.UpdatedAt = at
			r.byID[id] = req
		}
		out = append(out, req)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *adoptionsRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, req := range r.byID {
		if req.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *adoptionsRepo) list(match func(adoptions.Request) bool) []adoptions.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]adoptions.Request, 0)
	for _, req := range r.byID {
		if match(req) {
			out = append(out, req)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(out []adoptions.Request) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
