package cache

import "sync"

// LayerStats is a snapshot of one layer's counters.
type LayerStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// HitRate returns the layer's hit fraction, zero when untouched.
func (s LayerStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats is a snapshot of the whole store's counters.
type Stats struct {
	Memory      LayerStats `json:"memory"`
	Durable     LayerStats `json:"durable"`
	Promotions  int64      `json:"promotions"`
	Corruptions int64      `json:"corruptions"`
}

// HitRate returns the combined hit rate across both layers.
func (s Stats) HitRate() float64 {
	hits := s.Memory.Hits + s.Durable.Hits
	total := hits + s.Durable.Misses // a durable miss is a full miss
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// counters tracks hits/misses/evictions for one layer.
type counters struct {
	mu        sync.Mutex
	hits      int64
	misses    int64
	evictions int64
}

func (c *counters) hit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *counters) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *counters) evict() {
	c.mu.Lock()
	c.evictions++
	c.mu.Unlock()
}

func (c *counters) snapshot(entries int) LayerStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return LayerStats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Entries: entries}
}
