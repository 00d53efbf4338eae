package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingValue marca una key reservada cuya ejecución no terminó.
const pendingValue = "-"

type Idempotency struct {
	rdb *redis.Client
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb}
}

func idemKey(scope, key string) string { return KeyPrefix + "idem:" + scope + ":" + key }

func (s *Idempotency) Reserve(ctx context.Context, scope, key string, ttl time.Duration) (string, bool, error) {
	k := idemKey(scope, key)

	ok, err := s.rdb.SetNX(ctx, k, pendingValue, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	v, err := s.rdb.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// venció entre SETNX y GET; se trata como en curso
			return "", false, nil
		}
		return "", false, fmt.Errorf("read key: %w", err)
	}
	if v == pendingValue {
		return "", false, nil
	}
	return v, false, nil
}

func (s *Idempotency) Complete(ctx context.Context, scope, key, id string, ttl time.Duration) error {
	return s.rdb.Set(ctx, idemKey(scope, key), id, ttl).Err()
}

func (s *Idempotency) Release(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, idemKey(scope, key)).Err()
}
