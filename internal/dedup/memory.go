package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is a process-local Guard backed by a mutex-guarded map. The
// check-and-insert in Begin happens inside one critical section so two
// concurrent requests for the same fingerprint cannot both pass.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]*Entry
	window  time.Duration
	now     func() time.Time
}

// NewMemoryGuard constructs a guard with the given suppression window.
func NewMemoryGuard(window time.Duration) *MemoryGuard {
	return &MemoryGuard{
		entries: make(map[string]*Entry),
		window:  window,
		now:     time.Now,
	}
}

func (g *MemoryGuard) Begin(ctx context.Context, fingerprint, requestID string) (*Entry, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if existing, ok := g.entries[fingerprint]; ok {
		if now.Sub(existing.StartedAt) < g.window {
			copied := *existing
			return &copied, false, nil
		}
		// Stale entry from a request that never reached End; replace it.
		delete(g.entries, fingerprint)
	}

	g.entries[fingerprint] = &Entry{
		Fingerprint: fingerprint,
		RequestID:   requestID,
		StartedAt:   now,
	}
	return nil, true, nil
}

func (g *MemoryGuard) Attach(ctx context.Context, fingerprint, ticketID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.entries[fingerprint]; ok {
		entry.TicketID = ticketID
	}
	return nil
}

func (g *MemoryGuard) End(ctx context.Context, fingerprint string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, fingerprint)
	return nil
}
