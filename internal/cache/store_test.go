package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{Dir: t.TempDir(), MemoryEntries: 16})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := Key{Stage: "facts", Hash: "abc123", Version: "v1"}
	require.NoError(t, s.Put(ctx, key, []byte(`{"ok":true}`), time.Hour))

	got, ok := s.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, `{"ok":true}`, string(got))
}

func TestStore_MissOnUnknownKey(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Get(context.Background(), Key{Stage: "facts", Hash: "nope", Version: "v1"})
	assert.False(t, ok)
}

func TestStore_DifferentHashesIndependent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	k1 := Key{Stage: "facts", Hash: "doc-one", Version: "v1"}
	k2 := Key{Stage: "facts", Hash: "doc-two", Version: "v1"}
	require.NoError(t, s.Put(ctx, k1, []byte("one"), 0))
	require.NoError(t, s.Put(ctx, k2, []byte("two"), 0))

	v1, ok := s.Get(ctx, k1)
	require.True(t, ok)
	v2, ok := s.Get(ctx, k2)
	require.True(t, ok)
	assert.Equal(t, "one", string(v1))
	assert.Equal(t, "two", string(v2))
}

func TestStore_SchemaVersionNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := Key{Stage: "facts", Hash: "doc", Version: "v1"}
	require.NoError(t, s.Put(ctx, old, []byte("old shape"), 0))

	_, ok := s.Get(ctx, Key{Stage: "facts", Hash: "doc", Version: "v2"})
	assert.False(t, ok, "a newer schema version must not see older entries")
}

func TestStore_DurableHitPromotesToMemory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := Key{Stage: "summary", Hash: "h", Version: "v1"}
	require.NoError(t, s.Put(ctx, key, []byte("payload"), time.Hour))

	// Drop the fast layer; the durable layer should backfill it.
	s.memory.purge()
	got, ok := s.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))
	assert.EqualValues(t, 1, s.promotions.Load())

	// Second read is served from memory.
	_, ok = s.memory.get(key.String())
	assert.True(t, ok)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewStore(Config{Dir: dir})
	require.NoError(t, err)
	key := Key{Stage: "result", Hash: "doc", Version: "v1"}
	require.NoError(t, s1.Put(ctx, key, []byte("persisted"), time.Hour))
	require.NoError(t, s1.Close())

	s2, err := NewStore(Config{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	got, ok := s2.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(got))
}

func TestStore_ExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := Key{Stage: "facts", Hash: "h", Version: "v1"}
	require.NoError(t, s.Put(ctx, key, []byte("short-lived"), time.Second))

	future := time.Now().Add(time.Minute)
	s.memory.now = func() time.Time { return future }
	s.durable.now = func() time.Time { return future }

	_, ok := s.Get(ctx, key)
	assert.False(t, ok)
}

func TestStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, Key{Stage: "a", Hash: "1", Version: "v1"}, []byte("x"), time.Second))
	require.NoError(t, s.Put(ctx, Key{Stage: "a", Hash: "2", Version: "v1"}, []byte("y"), 0)) // no expiry

	future := time.Now().Add(time.Minute)
	s.memory.now = func() time.Time { return future }
	s.durable.now = func() time.Time { return future }

	swept, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, swept) // one per layer

	_, ok := s.Get(ctx, Key{Stage: "a", Hash: "2", Version: "v1"})
	assert.True(t, ok, "entries without TTL survive a sweep")
}

func TestStore_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, Key{Stage: "facts", Hash: "h1", Version: "v1"}, []byte("a"), 0))
	require.NoError(t, s.Put(ctx, Key{Stage: "facts", Hash: "h2", Version: "v1"}, []byte("b"), 0))
	require.NoError(t, s.Put(ctx, Key{Stage: "summary", Hash: "h1", Version: "v1"}, []byte("c"), 0))

	removed, err := s.Invalidate(ctx, StagePrefix("facts", "v1"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := s.Get(ctx, Key{Stage: "facts", Hash: "h1", Version: "v1"})
	assert.False(t, ok)
	_, ok = s.Get(ctx, Key{Stage: "summary", Hash: "h1", Version: "v1"})
	assert.True(t, ok)
}

func TestStore_Flush(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, Key{Stage: "facts", Hash: "h", Version: "v1"}, []byte("a"), 0))
	require.NoError(t, s.Flush(ctx))

	_, ok := s.Get(ctx, Key{Stage: "facts", Hash: "h", Version: "v1"})
	assert.False(t, ok)
}

func TestGetJSON_CorruptEntryDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := Key{Stage: "facts", Hash: "h", Version: "v1"}
	require.NoError(t, s.Put(ctx, key, []byte("{not json"), 0))

	var out map[string]any
	ok := GetJSON(ctx, s, key, &out)
	assert.False(t, ok)
	assert.EqualValues(t, 1, s.corruptions.Load())

	// The corrupt entry is gone from both layers.
	_, found := s.Get(ctx, key)
	assert.False(t, found)
}

func TestPutJSON_GetJSON(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	key := Key{Stage: "facts", Hash: "h", Version: "v1"}
	require.NoError(t, PutJSON(ctx, s, key, payload{Name: "trust", Count: 3}, time.Hour))

	var out payload
	require.True(t, GetJSON(ctx, s, key, &out))
	assert.Equal(t, payload{Name: "trust", Count: 3}, out)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := Key{Stage: "facts", Hash: "h", Version: "v1"}
	require.NoError(t, s.Put(ctx, key, []byte("v"), 0))

	_, _ = s.Get(ctx, key)                                                // memory hit
	_, _ = s.Get(ctx, Key{Stage: "facts", Hash: "zz", Version: "v1"})     // full miss
	stats := s.Stats(ctx)

	assert.EqualValues(t, 1, stats.Memory.Hits)
	assert.EqualValues(t, 1, stats.Durable.Misses)
	assert.Equal(t, 1, stats.Durable.Entries)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.01)
}

func TestMemoryLayer_LRUEviction(t *testing.T) {
	m, err := newMemoryLayer(2)
	require.NoError(t, err)

	m.put("a", []byte("1"), 0)
	m.put("b", []byte("2"), 0)
	m.put("c", []byte("3"), 0) // evicts "a"

	_, ok := m.get("a")
	assert.False(t, ok)
	_, ok = m.get("c")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, m.stats.snapshot(m.len()).Evictions, int64(1))
}
