package memory

import (
	"context"
	"sync"
	"time"
)

// sweepEvery espacia las pasadas que borran keys vencidas.
const sweepEvery = time.Minute

// Idempotency implementa idempotency.Store en memoria. Las keys vencidas se
// borran en Reserve, como mucho una vez por sweepEvery.
type Idempotency struct {
	mu        sync.Mutex
	keys      map[string]entry[string] // "" = reservada sin completar
	now       func() time.Time
	lastSweep time.Time
}

func NewIdempotency() *Idempotency {
	return &Idempotency{keys: make(map[string]entry[string]), now: time.Now}
}

func (s *Idempotency) Reserve(ctx context.Context, scope, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := scope + "|" + key
	now := s.now()
	s.sweep(now)
	if e, ok := s.keys[k]; ok && !e.expired(now) {
		return e.value, false, nil
	}

	e := entry[string]{}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.keys[k] = e
	return "", true, nil
}

func (s *Idempotency) Complete(ctx context.Context, scope, key, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry[string]{value: id}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.keys[scope+"|"+key] = e
	return nil
}

func (s *Idempotency) Release(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, scope+"|"+key)
	return nil
}

func (s *Idempotency) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	s.lastSweep = now
	for k, e := range s.keys {
		if e.expired(now) {
			delete(s.keys, k)
		}
	}
}
