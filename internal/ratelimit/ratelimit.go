// Package ratelimit implements the two in-memory, per-process guards
// spec.md 5 and 9 call for: a bounded LRU suppressing duplicate
// envelope payloads, and a per-namespace sliding-window submission cap.
// Neither is persisted; a restart resets both, per spec.md 9's
// guidance to treat a restart as a reset and document it (see
// DESIGN.md Open Question resolution 3).
package ratelimit

import (
	"container/list"
	"crypto/sha256"
	"sync"
	"time"
)

// DuplicateCache suppresses envelope payloads already seen, keyed by
// the SHA-256 digest of their canonical bytes (spec.md 5). Bounded by
// capacity; the least-recently-seen entry is evicted to make room for a
// new one, and each eviction is an observed event, not a correctness
// issue, per spec.md 5.
type DuplicateCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[[sha256.Size]byte]*list.Element
	evicted  uint64
}

// NewDuplicateCache builds a cache holding at most capacity digests.
func NewDuplicateCache(capacity int) *DuplicateCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &DuplicateCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[[sha256.Size]byte]*list.Element),
	}
}

// Seen reports whether payload was already recorded, and records it if
// not. A true result means the caller should drop the envelope as a
// duplicate.
func (c *DuplicateCache) Seen(payload []byte) bool {
	digest := sha256.Sum256(payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[digest]; ok {
		c.order.MoveToFront(el)
		return true
	}

	el := c.order.PushFront(digest)
	c.index[digest] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.([sha256.Size]byte))
			c.evicted++
		}
	}
	return false
}

// Evictions returns the number of entries evicted since creation, for
// the lrucache_evictions_total metric.
func (c *DuplicateCache) Evictions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evicted
}

// NamespaceLimiter enforces a sliding-window max-submissions-per-minute
// cap per namespace, per spec.md 5's submitter-side max_per_min.
type NamespaceLimiter struct {
	mu        sync.Mutex
	maxPerMin int
	window    time.Duration
	events    map[string][]time.Time
	now       func() time.Time
}

// NewNamespaceLimiter builds a limiter allowing maxPerMin submissions
// per namespace in any trailing one-minute window.
func NewNamespaceLimiter(maxPerMin int) *NamespaceLimiter {
	return &NamespaceLimiter{
		maxPerMin: maxPerMin,
		window:    time.Minute,
		events:    make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Allow records a submission attempt for namespace at instant now and
// reports whether it falls within the configured rate, evicting
// timestamps older than the trailing window first.
func (l *NamespaceLimiter) Allow(namespace string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.events[namespace][:0]
	for _, t := range l.events[namespace] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.maxPerMin {
		l.events[namespace] = kept
		return false
	}
	kept = append(kept, now)
	l.events[namespace] = kept
	return true
}
