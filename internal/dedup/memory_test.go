package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("a@b.com", "help me")
	b := Fingerprint("a@b.com", "help me")
	c := Fingerprint("a@b.com", "help me please")
	d := Fingerprint("other@b.com", "help me")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestMemoryGuardDuplicateWithinWindow(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard(time.Minute)

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

func TestMemoryGuardAcceptsAfterEnd(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard(time.Minute)
	fp := Fingerprint("a@b.com", "query")

	_, accepted, err := g.Begin(ctx, fp, "req-1")
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, g.End(ctx, fp))

	_, accepted, err = g.Begin(ctx, fp, "req-2")
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestMemoryGuardAcceptsAfterWindowExpiry(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard(time.Minute)

	current := time.Now()
	g.now = func() time.Time { return current }

	fp := Fingerprint("a@b.com", "query")
	_, accepted, err := g.Begin(ctx, fp, "req-1")
	require.NoError(t, err)
	require.True(t, accepted)

	// Same window: rejected.
	current = current.Add(30 * time.Second)
	_, accepted, err = g.Begin(ctx, fp, "req-2")
	require.NoError(t, err)
	assert.False(t, accepted)

	// Past the window without End: the stale entry is replaced.
	current = current.Add(31 * time.Second)
	_, accepted, err = g.Begin(ctx, fp, "req-3")
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestMemoryGuardConcurrentBegin(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard(time.Minute)
	fp := Fingerprint("a@b.com", "query")

	const workers = 16
	var wg sync.WaitGroup
	acceptedCount := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, accepted, err := g.Begin(ctx, fp, "req")
			assert.NoError(t, err)
			acceptedCount <- accepted
		}()
	}
	wg.Wait()
	close(acceptedCount)

	wins := 0
	for accepted := range acceptedCount {
		if accepted {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent Begin may be accepted")
}
