// Package replay records which signatures have already been accepted so a
// verified signature can be spent once.
package replay

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0gfoundation/0g-sigverify/internal/keccak"
)

const keyPrefix = "replay:sig:"

// Guard is a Redis-backed set of consumed signatures with per-entry TTL.
type Guard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewGuard(rdb *redis.Client, ttl time.Duration) *Guard {
	return &Guard{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key for sig. Signatures are keyed by hash so the
// key length does not depend on attacker input.
func Key(sig []byte) string {
	h := keccak.Sum256(sig)
	return keyPrefix + hex.EncodeToString(h[:])
}

// Consume marks sig as used. Callers pass the canonical encoding (V in
// {0, 1}) so every spelling of one signature shares a key. It returns true on first use and false when
// sig was already consumed within the TTL.
func (g *Guard) Consume(ctx context.Context, sig []byte) (bool, error) {
	set, err := g.rdb.SetNX(ctx, Key(sig), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("replay setnx: %w", err)
	}
	return set, nil
}

// Seen reports whether sig has been consumed, without consuming it.
func (g *Guard) Seen(ctx context.Context, sig []byte) (bool, error) {
	n, err := g.rdb.Exists(ctx, Key(sig)).Result()
	if err != nil {
		return false, fmt.Errorf("replay exists: %w", err)
	}
	return n > 0, nil
}
