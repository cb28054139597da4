package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisGuard(t *testing.T, window time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client, window), mr
}

func TestRedisGuardDuplicateWithinWindow(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestRedisGuard(t, time.Minute)
	fp := Fingerprint("a@b.com", "query")

	_, accepted, err := g.Begin(ctx, fp, "req-1")
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, g.Attach(ctx, fp, "ticket-1"))

	existing, accepted, err := g.Begin(ctx, fp, "req-2")
	require.NoError(t, err)
	assert.False(t, accepted)
	require.NotNil(t, existing)
	assert.Equal(t, "req-1", existing.RequestID)
	assert.Equal(t, "ticket-1", existing.TicketID)
}

func TestRedisGuardAcceptsAfterEnd(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestRedisGuard(t, time.Minute)
	fp := Fingerprint("a@b.com", "query")

	_, accepted, err := g.Begin(ctx, fp, "req-1")
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, g.End(ctx, fp))

	_, accepted, err = g.Begin(ctx, fp, "req-2")
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestRedisGuardWindowExpiry(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestRedisGuard(t, time.Minute)
	fp := Fingerprint("a@b.com", "query")

	_, accepted, err := g.Begin(ctx, fp, "req-1")
	require.NoError(t, err)
	require.True(t, accepted)

	mr.FastForward(61 * time.Second)

	_, accepted, err = g.Begin(ctx, fp, "req-2")
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestRedisGuardAttachKeepsTTL(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestRedisGuard(t, time.Minute)
	fp := Fingerprint("a@b.com", "query")

	_, accepted, err := g.Begin(ctx, fp, "req-1")
	require.NoError(t, err)
	require.True(t, accepted)

	mr.FastForward(30 * time.Second)
	require.NoError(t, g.Attach(ctx, fp, "ticket-1"))

	// Attach must not reset the window.
	mr.FastForward(31 * time.Second)
	_, accepted, err = g.Begin(ctx, fp, "req-2")
	require.NoError(t, err)
	assert.True(t, accepted)
}
