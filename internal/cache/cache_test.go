package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLRUGetAdd(t *testing.T) {
	c := New[[]string](4)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Add("a", []string{"one"})
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"one"}, got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 4, stats.Capacity)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	// touch a so b becomes the oldest
	_, _ = c.Get("a")
	c.Add("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestLRUNeverExceedsCapacity(t *testing.T) {
	c := New[int](3)
	for i := 0; i < 10; i++ {
		c.Add(Key([]string{"k"}, i), i)
		assert.LessOrEqual(t, c.Len(), 3)
	}
	assert.Equal(t, int64(7), c.Stats().Evictions)
}

func TestLRUClear(t *testing.T) {
	c := New[int](3)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions)

	c.Add("c", 3)
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestNewDefaultCapacity(t *testing.T) {
	c := New[int](0)
	assert.Equal(t, DefaultCapacity, c.Stats().Capacity)
}

func TestKeyNormalization(t *testing.T) {
	assert.Equal(t, Key([]string{"health", "medicine"}, 1), Key([]string{" Medicine", "HEALTH"}, 1))
	assert.Equal(t, Key([]string{"science"}, 2), Key([]string{"science", "science"}, 2))
	assert.NotEqual(t, Key([]string{"science"}, 1), Key([]string{"science"}, 2))
	assert.NotEqual(t, Key([]string{"science"}, 1), Key([]string{"technology"}, 1))
	assert.Equal(t, `"health","medicine"|page=3`, Key([]string{"medicine", "health"}, 3))
	assert.Equal(t, "|page=1", Key(nil, 1))
}

func TestKeyKeepsCommaKeywordsDistinct(t *testing.T) {
	assert.NotEqual(t, Key([]string{"a,b"}, 1), Key([]string{"a", "b"}, 1))
	assert.NotEqual(t, Key([]string{`a","b`}, 1), Key([]string{"a", "b"}, 1))
	assert.NotEqual(t, Key([]string{"x|page=2"}, 1), Key([]string{"x"}, 2))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"Health", "medicine"}, Dedup([]string{" Health", "medicine", "health", "", "  "}))
	assert.Empty(t, Dedup(nil))
}
