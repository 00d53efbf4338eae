package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/cache"

	"github.com/redis/go-redis/v9"
)

type Sessions struct {
	rdb *redis.Client
}

func NewSessions(rdb *redis.Client) *Sessions {
	return &Sessions{rdb: rdb}
}

type storedClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func sessionKey(token string) string { return KeyPrefix + "session:" + token }

func (s *Sessions) Put(ctx context.Context, token string, claims auth.Claims, ttl time.Duration) error {
	b, err := json.Marshal(storedClaims{UserID: claims.UserID, Email: claims.Email})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(token), b, ttl).Err()
}

func (s *Sessions) Get(ctx context.Context, token string) (auth.Claims, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Claims{}, cache.ErrSessionNotFound
		}
		return auth.Claims{}, fmt.Errorf("get session: %w", err)
	}

	var sc storedClaims
	if err := json.Unmarshal(raw, &sc); err != nil {
		return auth.Claims{}, fmt.Errorf("decode session: %w", err)
	}
	return auth.Claims{UserID: sc.UserID, Email: sc.Email}, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

// Counter cuenta dentro de una ventana fija: INCR y EXPIRE en la misma
// transacción solo cuando la key nace.
type Counter struct {
	rdb *redis.Client
}

func NewCounter(rdb *redis.Client) *Counter {
	return &Counter{rdb: rdb}
}

func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := KeyPrefix + "count:" + key

	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		if window > 0 {
			pipe.ExpireNX(ctx, k, window)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr counter: %w", err)
	}
	return incr.Val(), nil
}

func (c *Counter) Count(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, KeyPrefix+"count:"+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return n, nil
}

func (c *Counter) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, KeyPrefix+"count:"+key).Err()
}
