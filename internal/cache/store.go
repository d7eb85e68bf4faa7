package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

// DefaultMemoryEntries bounds the fast layer when no size is configured.
const DefaultMemoryEntries = 1024

// Config controls store construction.
type Config struct {
	// Dir is where the durable SQLite layer lives.
	Dir string
	// MemoryEntries bounds the fast LRU layer by entry count.
	MemoryEntries int
}

// Store is the process-wide, two-layer cache. It is explicitly constructed
// and passed into every stage that needs it; there is no ambient instance.
// Gets check the fast layer first and promote durable hits; puts write
// through to both layers.
type Store struct {
	memory      *memoryLayer
	durable     *durableLayer
	promotions  atomic.Int64
	corruptions atomic.Int64
}

// NewStore opens (or creates) a cache store rooted at cfg.Dir.
func NewStore(cfg Config) (*Store, error) {
	if cfg.MemoryEntries <= 0 {
		cfg.MemoryEntries = DefaultMemoryEntries
	}
	memory, err := newMemoryLayer(cfg.MemoryEntries)
	if err != nil {
		return nil, err
	}
	durable, err := newDurableLayer(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return &Store{memory: memory, durable: durable}, nil
}

// Get returns the cached value for key, or false on a miss. A durable hit
// is promoted into the fast layer with its remaining TTL.
func (s *Store) Get(ctx context.Context, key Key) ([]byte, bool) {
	k := key.String()
	if value, ok := s.memory.get(k); ok {
		return value, true
	}
	value, remaining, ok := s.durable.get(ctx, k)
	if !ok {
		return nil, false
	}
	s.memory.put(k, value, remaining)
	s.promotions.Add(1)
	return value, true
}

// Put writes the value through both layers. The value is copied, so later
// caller mutation cannot corrupt what readers observe.
func (s *Store) Put(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	owned := make([]byte, len(value))
	copy(owned, value)
	if err := s.durable.put(ctx, key, owned, ttl); err != nil {
		return err
	}
	s.memory.put(key.String(), owned, ttl)
	return nil
}

// Invalidate removes every entry whose key starts with prefix, from both
// layers. Returns how many durable entries were removed.
func (s *Store) Invalidate(ctx context.Context, prefix string) (int, error) {
	s.memory.removePrefix(prefix)
	return s.durable.removePrefix(ctx, prefix)
}

// Remove drops a single key from both layers.
func (s *Store) Remove(ctx context.Context, key Key) {
	k := key.String()
	s.memory.remove(k)
	s.durable.remove(ctx, k)
}

// Sweep purges expired entries from both layers. Expiry is otherwise lazy,
// checked on access; this is the explicit maintenance hook.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	swept := s.memory.sweep()
	durableSwept, err := s.durable.sweep(ctx)
	return swept + durableSwept, err
}

// Flush clears both layers.
func (s *Store) Flush(ctx context.Context) error {
	s.memory.purge()
	return s.durable.flush(ctx)
}

// Stats returns a snapshot of both layers' counters.
func (s *Store) Stats(ctx context.Context) Stats {
	return Stats{
		Memory:      s.memory.stats.snapshot(s.memory.len()),
		Durable:     s.durable.stats.snapshot(s.durable.len(ctx)),
		Promotions:  s.promotions.Load(),
		Corruptions: s.corruptions.Load(),
	}
}

// Close closes the durable layer.
func (s *Store) Close() error {
	return s.durable.close()
}

// GetJSON reads a cached value and unmarshals it into out. An entry that
// fails to deserialize is corrupt: it is dropped from both layers and
// reported as a miss, never propagated as a failure.
func GetJSON(ctx context.Context, s *Store, key Key, out any) bool {
	value, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(value, out); err != nil {
		s.corruptions.Add(1)
		s.Remove(ctx, key)
		return false
	}
	return true
}

// PutJSON marshals v and writes it through both layers.
func PutJSON(ctx context.Context, s *Store, key Key, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data, ttl)
}
