// Package cache provides a small time-bounded key/value store used by the
// live-stream tracker to avoid redundant Helix lookups. Entries carry their
// insertion time; expiry is enforced only when Cleanup is called, typically
// once per poll cycle. The store does no locking of its own — it is owned by
// the single poller goroutine.
package cache

import (
	"log/slog"
	"time"
)

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// TimeBounded maps keys to values and forgets entries older than a maximum
// age on Cleanup. An optional default value can be configured for lookups of
// absent keys.
type TimeBounded[K comparable, V any] struct {
	name    string
	maxAge  time.Duration
	now     func() time.Time
	entries map[K]entry[V]
	def     *V
}

// NewTimeBounded creates an empty cache. The name is only used in log output.
func NewTimeBounded[K comparable, V any](name string, maxAge time.Duration) *TimeBounded[K, V] {
	return &TimeBounded[K, V]{
		name:    name,
		maxAge:  maxAge,
		now:     time.Now,
		entries: make(map[K]entry[V]),
	}
}

// SetDefault configures the value returned by Get for absent keys.
func (c *TimeBounded[K, V]) SetDefault(v V) {
	c.def = &v
}

// Contains reports whether key is present, regardless of the entry's age.
func (c *TimeBounded[K, V]) Contains(key K) bool {
	_, ok := c.entries[key]
	return ok
}

// Add inserts or overwrites an entry and restamps its insertion time.
func (c *TimeBounded[K, V]) Add(key K, value V) {
	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
}

// AddMany adds every pair from m.
func (c *TimeBounded[K, V]) AddMany(m map[K]V) {
	for k, v := range m {
		c.Add(k, v)
	}
}

// Get returns the stored value for key. For absent keys it returns the
// configured default if one was set, else the zero value and false.
func (c *TimeBounded[K, V]) Get(key K) (V, bool) {
	if e, ok := c.entries[key]; ok {
		return e.value, true
	}
	if c.def != nil {
		return *c.def, true
	}
	var zero V
	return zero, false
}

// Cleanup removes every entry older than the configured maximum age.
func (c *TimeBounded[K, V]) Cleanup() {
	cutoff := c.now().Add(-c.maxAge)
	for k, e := range c.entries {
		if e.insertedAt.Before(cutoff) {
			delete(c.entries, k)
			slog.Info("cache entry expired", slog.String("cache", c.name), slog.Any("key", k))
		}
	}
}

// Len returns the number of entries currently held.
func (c *TimeBounded[K, V]) Len() int {
	return len(c.entries)
}
