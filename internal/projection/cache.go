// Package projection implements the Projection Cache and View Function
// Host from spec.md §4.4: per-(projection,fop,version,options,locale)
// memoization with FIFO eviction, a global epoch registry for bulk
// invalidation, and the read path that overlays fresh timer/decision
// state onto a cached or freshly computed view.
package projection

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
)

// Key is the deterministic cache key from §4.4: the tuple
// (projectionName, fopName, fopStateVersion, canonicalized options,
// locale), used directly as a comparable map key. No content hashing
// of the view itself -- only the options are hashed (CanonicalizeOptions),
// for a compact fixed-size component.
type Key struct {
	Projection string
	Fop        string
	Version    uint64
	OptionsKey string
	Locale     string
}

// CanonicalizeOptions renders an options map deterministically
// (sorted keys, JSON-encoded values) so equal option sets always
// produce the same cache key regardless of map iteration order.
func CanonicalizeOptions(opts map[string]any) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		v, _ := json.Marshal(opts[k])
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write(v)
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// entry is one cached view. Timer/decision state is deliberately NOT
// part of the cached payload (§4.4 cache discipline) -- it is overlaid
// at read time from the live FopUpdate.
type entry struct {
	view any
}

// Cache is one projection's memoization table: a FIFO-bounded map
// keyed by Key. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	cap      int
	entries  map[Key]*entry
	order    []Key // FIFO eviction order
}

// NewCache constructs a Cache with the given FIFO capacity (spec.md
// §4.4: "hold last ~20 entries").
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 20
	}
	c := &Cache{cap: capacity, entries: make(map[Key]*entry)}
	defaultRegistry.register(c)
	return c
}

// Get returns the cached view for key, if present.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.view, true
}

// Put stores view under key, evicting the oldest entry if the cache is
// at capacity.
func (c *Cache) Put(key Key, view any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &entry{view: view}
}

// Clear evicts every entry, used by the global epoch registry's
// clearAll() and directly by callers that need to invalidate one
// projection's cache (e.g. after a schema change in tests).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
	c.order = nil
}

// Len reports the current entry count, for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// registry is the process-wide epoch register from §4.4: every
// projection cache registers itself so an operational clearAll() can
// evict everything without reaching into each cache directly.
type registry struct {
	mu     sync.Mutex
	caches []*Cache
}

var defaultRegistry = &registry{}

func (r *registry) register(c *Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caches = append(r.caches, c)
}

// ClearAll evicts every registered projection cache process-wide.
func ClearAll() {
	defaultRegistry.mu.Lock()
	caches := append([]*Cache(nil), defaultRegistry.caches...)
	defaultRegistry.mu.Unlock()

	for _, c := range caches {
		c.Clear()
	}
}
