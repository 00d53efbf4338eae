package memory

import (
	"context"
	"testing"
	"time"

	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSessions_ExpireAfterTTL(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSessions()
	s.now = clk.now

	require.NoError(t, s.Put(ctx, "tk", auth.Claims{UserID: "u1", Email: "a@b.com"}, time.Hour))

	c, err := s.Get(ctx, "tk")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)

	clk.advance(time.Hour)
	_, err = s.Get(ctx, "tk")
	assert.ErrorIs(t, err, cache.ErrSessionNotFound)
}

func TestSessions_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()

	require.NoError(t, s.Put(ctx, "tk", auth.Claims{UserID: "u1"}, 0))
	require.NoError(t, s.Delete(ctx, "tk"))

	_, err := s.Get(ctx, "tk")
	assert.ErrorIs(t, err, cache.ErrSessionNotFound)
}

func TestCounter_WindowRestarts(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCounter()
	c.now = clk.now

	for i := 1; i <= 3; i++ {
		n, err := c.Incr(ctx, "login:a@b.com", time.Minute)
		require.NoError(t, err)
		assert.EqualValues(t, i, n)
	}

	clk.advance(time.Minute)
	n, _ := c.Incr(ctx, "login:a@b.com", time.Minute)
	assert.EqualValues(t, 1, n)

	require.NoError(t, c.Reset(ctx, "login:a@b.com"))
	n, _ = c.Incr(ctx, "login:a@b.com", time.Minute)
	assert.EqualValues(t, 1, n)
}

func TestIdempotency_ReserveCompleteRelease(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotency()

	_, reserved, err := s.Reserve(ctx, "pets:s1", "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)

	// segunda reserva mientras está en curso
	id, reserved, _ := s.Reserve(ctx, "pets:s1", "k", time.Hour)
	assert.False(t, reserved)
	assert.Empty(t, id)

	require.NoError(t, s.Complete(ctx, "pets:s1", "k", "p1", time.Hour))
	id, reserved, _ = s.Reserve(ctx, "pets:s1", "k", time.Hour)
	assert.False(t, reserved)
	assert.Equal(t, "p1", id)

	// misma key en otro scope es independiente
	_, reserved, _ = s.Reserve(ctx, "pets:s2", "k", time.Hour)
	assert.True(t, reserved)

	require.NoError(t, s.Release(ctx, "pets:s2", "k"))
	_, reserved, _ = s.Reserve(ctx, "pets:s2", "k", time.Hour)
	assert.True(t, reserved)
}

func TestIdempotency_ReserveSweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewIdempotency()
	s.now = c.now

	for _, k := range []string{"a", "b", "c"} {
		_, reserved, err := s.Reserve(ctx, "adoptions:u1", k, time.Minute)
		require.NoError(t, err)
		require.True(t, reserved)
	}
	require.NoError(t, s.Complete(ctx, "adoptions:u1", "a", "r1", time.Minute))
	// sin TTL no vence nunca
	_, _, _ = s.Reserve(ctx, "adoptions:u1", "forever", 0)
	require.Len(t, s.keys, 4)

	c.advance(2 * time.Minute)
	_, reserved, err := s.Reserve(ctx, "adoptions:u1", "d", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)

	assert.Len(t, s.keys, 2)
	assert.Contains(t, s.keys, "adoptions:u1|forever")
	assert.Contains(t, s.keys, "adoptions:u1|d")

	// la key vencida vuelve a estar libre
	_, reserved, _ = s.Reserve(ctx, "adoptions:u1", "a", time.Minute)
	assert.True(t, reserved)
}
