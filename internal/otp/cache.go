// Package otp implements the one-time-credential store that gates
// registration confirmation and password reset. Codes are short-lived,
// keyed by user id, and replaced wholesale on re-issue: at most one live
// code exists per user at any moment.
//
// Two implementations are provided:
//   - Cache: an in-process sharded map with per-shard locking, the default.
//   - RedisStore: a Redis-backed variant for multi-process deployments.
//
// Expiry is checked by timestamp comparison at validation time; there is no
// background sweeper. Validation does not consume the code: callers invoke
// Invalidate explicitly after acting on a successful validation, so a flow
// can pre-check a code without destroying it.
package otp

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// Store is the one-time-credential contract consumed by the auth flow.
// All operations are safe for concurrent use and atomic per user id.
type Store interface {
	// Issue stores code for userID with the given lifetime, replacing any
	// previously issued code for that user.
	Issue(ctx context.Context, userID uint, code string, ttl time.Duration)
	// Validate reports whether a live code exists for userID and matches the
	// argument. Comparison is case-insensitive (codes are human-entered).
	// The entry is left in place.
	Validate(ctx context.Context, userID uint, code string) bool
	// Invalidate removes the entry for userID if present; no-op otherwise.
	Invalidate(ctx context.Context, userID uint)
	// HasLive reports whether a not-yet-expired code exists for userID.
	HasLive(ctx context.Context, userID uint) bool
}

const shardCount = 32

type entry struct {
	code      string
	expiresAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[uint]entry
}

// Cache is the in-process Store implementation. Keys are distributed over a
// fixed set of shards so operations on different users do not contend on a
// single lock. Contents are lost on process restart; codes are re-issuable.
type Cache struct {
	shards [shardCount]*shard

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	c := &Cache{now: time.Now}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[uint]entry)}
	}
	return c
}

func (c *Cache) shardFor(userID uint) *shard {
	h := fnv.New32a()
	var buf [4]byte
	buf[0] = byte(userID)
	buf[1] = byte(userID >> 8)
	buf[2] = byte(userID >> 16)
	buf[3] = byte(userID >> 24)
	_, _ = h.Write(buf[:])
	return c.shards[h.Sum32()%shardCount]
}

// Issue stores code for userID, overwriting any prior entry.
func (c *Cache) Issue(_ context.Context, userID uint, code string, ttl time.Duration) {
	s := c.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry{code: code, expiresAt: c.now().Add(ttl)}
}

// Validate reports whether a matching, unexpired code exists for userID.
func (c *Cache) Validate(_ context.Context, userID uint, code string) bool {
	s := c.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return false
	}
	if c.now().After(e.expiresAt) {
		return false
	}
	return strings.EqualFold(e.code, code)
}

// Invalidate removes the entry for userID.
func (c *Cache) Invalidate(_ context.Context, userID uint) {
	s := c.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// HasLive reports whether an unexpired entry exists for userID.
func (c *Cache) HasLive(_ context.Context, userID uint) bool {
	s := c.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	return ok && !c.now().After(e.expiresAt)
}
