package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"petmatch/internal/domain/accounts"
	"petmatch/internal/ports/auth"
	"petmatch/internal/session"
)

// AccountsRepo guarda perfiles, registros de rol y credenciales locales.
type AccountsRepo struct {
	mu       sync.RWMutex
	profiles map[string]accounts.Profile
	roles    map[string]session.Role
	creds    map[string]auth.Credential // email -> credencial
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		profiles: make(map[string]accounts.Profile),
		roles:    make(map[string]session.Role),
		creds:    make(map[string]auth.Credential),
	}
}

func (r *AccountsRepo) CreateAccount(ctx context.Context, p accounts.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id required")
	}
	if _, exists := r.profiles[p.ID]; exists {
		return errors.New("profile already exists")
	}
	r.profiles[p.ID] = cloneProfile(p)
	r.roles[p.ID] = p.Role
	return nil
}

func (r *AccountsRepo) GetProfile(ctx context.Context, id string) (accounts.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return accounts.Profile{}, accounts.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *AccountsRepo) UpdateProfile(ctx context.Context, p accounts.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; !ok {
		return accounts.ErrNotFound
	}
	r.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (r *AccountsRepo) GetRole(ctx context.Context, id string) (session.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return "", accounts.ErrNotFound
	}
	return role, nil
}

func (r *AccountsRepo) CreateCredential(ctx context.Context, c auth.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.creds[c.Email]; exists {
		return auth.ErrEmailTaken
	}
	r.creds[c.Email] = c
	return nil
}

func (r *AccountsRepo) GetCredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.creds[email]
	if !ok {
		return auth.Credential{}, auth.ErrCredentialNotFound
	}
	return c, nil
}

func (r *AccountsRepo) DeleteCredential(ctx context.Context, principalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for email, c := range r.creds {
		if c.PrincipalID == principalID {
			delete(r.creds, email)
		}
	}
	return nil
}

func cloneProfile(p accounts.Profile) accounts.Profile {
	if p.Adopter != nil {
		a := *p.Adopter
		p.Adopter = &a
	}
	if p.Shelter != nil {
		s := *p.Shelter
		p.Shelter = &s
	}
	return p
}
