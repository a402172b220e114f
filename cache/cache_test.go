package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	*Memory
	gets int
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{Memory: NewMemory()}
}

func (c *countingCache) Get(key string) (any, bool) {
	c.gets++
	return c.Memory.Get(key)
}

func (c *countingCache) Set(key string, value any) {
	c.sets++
	c.Memory.Set(key, value)
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	m.Set("a", 1)

	value, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	m.Delete("a")
	_, ok = m.Get("a")
	assert.False(t, ok)

	m.Set("b", 2)
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestTTLNamespacesShareBackingCache(t *testing.T) {
	shared := NewSharedCache()
	first := NewTTL("site-a", time.Minute, WithSharedCache(shared))
	second := NewTTL("site-b", time.Minute, WithSharedCache(shared))

	first.Set("colors.primary", "#ffffff")
	second.Set("colors.primary", "#000000")

	value, ok := first.Get("colors.primary")
	require.True(t, ok)
	assert.Equal(t, "#ffffff", value)

	first.Clear()
	_, ok = first.Get("colors.primary")
	assert.False(t, ok)

	value, ok = second.Get("colors.primary")
	require.True(t, ok, "clearing one namespace must not touch another")
	assert.Equal(t, "#000000", value)
}

func TestTTLNamespacesWithSeparatorDoNotCollide(t *testing.T) {
	shared := NewSharedCache()
	outer := NewTTL("a", time.Minute, WithSharedCache(shared))
	inner := NewTTL("a:b", time.Minute, WithSharedCache(shared))

	outer.Set("b:c", "outer")
	inner.Set("c", "inner")

	value, ok := outer.Get("b:c")
	require.True(t, ok)
	assert.Equal(t, "outer", value)
	value, ok = inner.Get("c")
	require.True(t, ok)
	assert.Equal(t, "inner", value)

	outer.Clear()
	_, ok = inner.Get("c")
	assert.True(t, ok, "clearing a namespace must not reach one that extends its name")
}

func TestTTLExpires(t *testing.T) {
	c := NewTTL("ns", 20*time.Millisecond)
	c.Set("k", "v")

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTLDefaultsWhenNonPositive(t *testing.T) {
	c := NewTTL("ns", 0)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, "ns", c.Namespace())
}

func TestLayeredBackfillsUpperTier(t *testing.T) {
	tier1 := newCountingCache()
	tier2 := newCountingCache()
	layered := NewLayered(tier1, nil, tier2)
	require.Equal(t, 2, layered.Tiers())

	tier2.Memory.Set("k", "v")

	value, ok := layered.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
	assert.Equal(t, 1, tier1.sets, "tier-2 hit must back-fill tier 1")

	value, ok = layered.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
	assert.Equal(t, 1, tier2.gets, "second read must be served by tier 1")
}

func TestLayeredDeleteAndClearFanOut(t *testing.T) {
	tier1 := NewMemory()
	tier2 := NewMemory()
	layered := NewLayered(tier1, tier2)

	layered.Set("a", 1)
	layered.Set("b", 2)
	layered.Delete("a")

	_, ok := tier1.Get("a")
	assert.False(t, ok)
	_, ok = tier2.Get("a")
	assert.False(t, ok)

	layered.Clear()
	assert.Equal(t, 0, tier1.Len())
	assert.Equal(t, 0, tier2.Len())
}
