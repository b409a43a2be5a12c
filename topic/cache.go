package topic

import "sync"

// Cache memoizes "which filters does topic T match" so that repeated
// deliveries to the same topic skip re-evaluating every filter. Adapted
// from bus_sub.Sublist's exactCache/wildcardCache split: results per
// concrete topic are memoized in a map (optionally bounded; when full,
// an arbitrary entry is evicted) since the filter set is static; the
// filter list itself is scanned directly on every cache miss.
type Cache[T any] struct {
	mu      sync.RWMutex
	exact   map[string][]T // topic -> memoized match result
	bound   int
	filters []filterEntry[T]
}

type filterEntry[T any] struct {
	filter string
	value  T
}

// NewCache builds a cache bounded to at most `bound` memoized topics
// (0 means unbounded, acceptable per spec §5 when topic cardinality is
// bounded).
func NewCache[T any](bound int) *Cache[T] {
	return &Cache[T]{
		exact: make(map[string][]T),
		bound: bound,
	}
}

// Register associates a subscription filter with its compiled value
// (e.g. a *handler.Handler). Must be called before any Match lookups
// occur; the handler table is immutable after bootstrap (spec §3).
func (c *Cache[T]) Register(filter string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, filterEntry[T]{filter: filter, value: value})
}

// Match returns every registered value whose filter matches topic,
// memoizing the result for subsequent lookups on the same topic.
func (c *Cache[T]) Match(top string) []T {
	c.mu.RLock()
	if cached, ok := c.exact[top]; ok {
		c.mu.RUnlock()
		return cached
	}
	c.mu.RUnlock()

	var result []T
	c.mu.RLock()
	for _, fe := range c.filters {
		if Match(fe.filter, top) {
			result = append(result, fe.value)
		}
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if c.bound > 0 && len(c.exact) >= c.bound {
		for k := range c.exact {
			delete(c.exact, k)
			break
		}
	}
	c.exact[top] = result
	c.mu.Unlock()

	return result
}

// Reset purges the memoization cache (used when the handler table changes,
// which in practice only happens once at bootstrap — see spec §5).
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exact = make(map[string][]T)
}
