package sync

import (
	"log"
	"sync"
	"time"
)

// dedupTTL is how long an applied message id is remembered. The same
// logical event can arrive once per transport, in either order; inside
// this window the second copy is discarded.
const dedupTTL = 5 * time.Minute

// DedupCache tracks recently-applied message identifiers so an event
// delivered over both cloud and LAN is applied exactly once. Each entry
// is removed by its own timer when the TTL elapses; there is no sweep.
type DedupCache struct {
	mu      sync.Mutex
	clock   Clock
	ttl     time.Duration
	entries map[string]Timer
}

// NewDedupCache creates a dedup cache with the standard 5-minute TTL
func NewDedupCache(clock Clock) *DedupCache {
	return &DedupCache{
		clock:   clock,
		ttl:     dedupTTL,
		entries: make(map[string]Timer),
	}
}

// Seen records id and reports whether it was already present. A true
// result means the message was applied before and must be discarded.
func (c *DedupCache) Seen(id string) bool {
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		return true
	}

	c.entries[id] = c.clock.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		log.Printf("[Sync] Dedup entry expired: %s", id)
	})
	return false
}

// Len returns the number of live entries
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear stops every expiry timer and forgets all entries. Called on
// shutdown; nothing may fire afterwards.
func (c *DedupCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, timer := range c.entries {
		timer.Stop()
		delete(c.entries, id)
	}
}
