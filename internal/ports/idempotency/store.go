package idempotency

import (
	"context"
	"time"
)

// Store guarda, por (scope, key), el id del recurso que produjo la primera
// ejecución. Reserve es atómico: solo un caller obtiene reserved=true.
type Store interface {
	// Reserve devuelve (id, false) si la key ya se completó, ("", false) si
	// otra ejecución la tiene reservada y ("", true) si la reservó este caller.
	Reserve(ctx context.Context, scope, key string, ttl time.Duration) (existingID string, reserved bool, err error)
	Complete(ctx context.Context, scope, key, id string, ttl time.Duration) error
	Release(ctx context.Context, scope, key string) error
}
