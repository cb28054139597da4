package dedup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dedup:query:"

// RedisGuard is a Guard backed by a short-TTL Redis key per fingerprint.
// SET NX makes the check-and-insert atomic across processes; the TTL bounds
// the window even if End is never reached.
type RedisGuard struct {
	client *redis.Client
	window time.Duration
}

// NewRedisGuard constructs a Redis-backed guard.
func NewRedisGuard(client *redis.Client, window time.Duration) *RedisGuard {
	return &RedisGuard{client: client, window: window}
}

func (g *RedisGuard) Begin(ctx context.Context, fingerprint, requestID string) (*Entry, bool, error) {
	entry := Entry{
		Fingerprint: fingerprint,
		RequestID:   requestID,
		StartedAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, false, err
	}

	ok, err := g.client.SetNX(ctx, keyPrefix+fingerprint, payload, g.window).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	raw, err := g.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		// Entry expired between SETNX and GET; treat as accepted on retry
		// semantics by reporting the duplicate without identifiers.
		return &Entry{Fingerprint: fingerprint}, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var existing Entry
	if err := json.Unmarshal(raw, &existing); err != nil {
		existing = Entry{Fingerprint: fingerprint}
	}
	return &existing, false, nil
}

func (g *RedisGuard) Attach(ctx context.Context, fingerprint, ticketID string) error {
	raw, err := g.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return err
	}
	entry.TicketID = ticketID

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return g.client.Set(ctx, keyPrefix+fingerprint, payload, redis.KeepTTL).Err()
}

func (g *RedisGuard) End(ctx context.Context, fingerprint string) error {
	return g.client.Del(ctx, keyPrefix+fingerprint).Err()
}
