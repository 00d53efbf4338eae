package memory

import (
	"context"
	"sync"
	"time"

	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/cache"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Sessions guarda tokens opacos en memoria (dev / tests / una sola instancia).
type Sessions struct {
	mu   sync.Mutex
	byTK map[string]entry[auth.Claims]
	now  func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{byTK: make(map[string]entry[auth.Claims]), now: time.Now}
}

func (s *Sessions) Put(ctx context.Context, token string, claims auth.Claims, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry[auth.Claims]{value: claims}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.byTK[token] = e
	return nil
}

func (s *Sessions) Get(ctx context.Context, token string) (auth.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byTK[token]
	if !ok {
		return auth.Claims{}, cache.ErrSessionNotFound
	}
	if e.expired(s.now()) {
		delete(s.byTK, token)
		return auth.Claims{}, cache.ErrSessionNotFound
	}
	return e.value, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byTK, token)
	return nil
}

// Counter es una ventana fija: el primer Incr fija el vencimiento.
type Counter struct {
	mu    sync.Mutex
	byKey map[string]entry[int64]
	now   func() time.Time
}

func NewCounter() *Counter {
	return &Counter{byKey: make(map[string]entry[int64]), now: time.Now}
}

func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.byKey[key]
	if !ok || e.expired(now) {
		e = entry[int64]{}
		if window > 0 {
			e.expiresAt = now.Add(window)
		}
	}
	e.value++
	c.byKey[key] = e
	return e.value, nil
}

func (c *Counter) Count(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byKey[key]
	if !ok || e.expired(c.now()) {
		return 0, nil
	}
	return e.value, nil
}

func (c *Counter) Reset(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byKey, key)
	return nil
}
