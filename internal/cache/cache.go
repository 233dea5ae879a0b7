// Package cache provides the bounded, process-wide memoization cache used by
// the article fetcher.
package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
)

// DefaultCapacity matches the fetch cache size the app has always used.
const DefaultCapacity = 128

type Stats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// LRU is a fixed-capacity cache that evicts the least recently used entry.
// Entries never expire on their own.
type LRU[V any] struct {
	mu        sync.Mutex
	items     *lru.Cache
	capacity  int
	hits      int64
	misses    int64
	evictions int64
}

func New[V any](capacity int) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c := &LRU[V]{
		items:    lru.New(capacity),
		capacity: capacity,
	}
	c.items.OnEvicted = func(lru.Key, interface{}) {
		c.evictions++
	}
	return c
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	value, ok := c.items.Get(key)
	if !ok {
		c.misses++
		return zero, false
	}
	c.hits++
	return value.(V), true
}

func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Add(key, value)
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.items.Len()
}

// Clear drops every entry. Counters are kept.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.items.Len()
	c.items.Clear()
	// Clear fires OnEvicted for every entry; those are not capacity evictions.
	c.evictions -= int64(n)
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   c.items.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Dedup trims keywords, drops empty ones and removes case-insensitive
// duplicates, keeping the first occurrence of each in order.
func Dedup(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		folded := strings.ToLower(k)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Key builds a cache key from a keyword set and a page number. Keywords are
// deduplicated, lower-cased and sorted so that the same set always maps to
// the same key. Each keyword is quoted, so "a,b" and ["a", "b"] differ.
func Key(keywords []string, page int) string {
	normalized := Dedup(keywords)
	for i, k := range normalized {
		normalized[i] = strings.ToLower(k)
	}
	sort.Strings(normalized)

	var b strings.Builder
	for i, k := range normalized {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
	}
	b.WriteString("|page=")
	b.WriteString(strconv.Itoa(page))
	return b.String()
}
