package cache

import (
	"context"
	"errors"
	"time"

	"petmatch/internal/ports/auth"
)

var ErrSessionNotFound = errors.New("session not found")

// Sessions guarda tokens opacos de sesión con TTL.
type Sessions interface {
	Put(ctx context.Context, token string, claims auth.Claims, ttl time.Duration) error
	Get(ctx context.Context, token string) (auth.Claims, error)
	Delete(ctx context.Context, token string) error
}

// Counter es un contador con ventana (el TTL arranca con el primer Incr).
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}
