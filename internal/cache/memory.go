package cache

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memEntry is one fast-layer value with its expiry deadline. A zero
// deadline means no expiry.
type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryLayer is the bounded LRU fast layer. All mutation goes through the
// LRU's own lock; values are stored as immutable byte slices so a reader
// never observes a partial write.
type memoryLayer struct {
	lru   *lru.Cache[string, memEntry]
	stats counters
	now   func() time.Time
}

func newMemoryLayer(maxEntries int) (*memoryLayer, error) {
	m := &memoryLayer{now: time.Now}
	c, err := lru.NewWithEvict(maxEntries, func(string, memEntry) {
		m.stats.evict()
	})
	if err != nil {
		return nil, err
	}
	m.lru = c
	return m, nil
}

func (m *memoryLayer) get(key string) ([]byte, bool) {
	entry, ok := m.lru.Get(key)
	if !ok {
		m.stats.miss()
		return nil, false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.lru.Remove(key)
		m.stats.miss()
		return nil, false
	}
	m.stats.hit()
	return entry.value, true
}

func (m *memoryLayer) put(key string, value []byte, ttl time.Duration) {
	entry := memEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, entry)
}

func (m *memoryLayer) remove(key string) {
	m.lru.Remove(key)
}

func (m *memoryLayer) removePrefix(prefix string) int {
	removed := 0
	for _, key := range m.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.lru.Remove(key)
			removed++
		}
	}
	return removed
}

func (m *memoryLayer) sweep() int {
	swept := 0
	now := m.now()
	for _, key := range m.lru.Keys() {
		if entry, ok := m.lru.Peek(key); ok {
			if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
				m.lru.Remove(key)
				swept++
			}
		}
	}
	return swept
}

func (m *memoryLayer) purge() {
	m.lru.Purge()
}

func (m *memoryLayer) len() int {
	return m.lru.Len()
}
