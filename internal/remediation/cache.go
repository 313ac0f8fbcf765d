package remediation

import "sync"

// Cache holds prescriptions for the duration of one session. Invalidate
// a key after new attempts land, or Reset at session boundaries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Prescription
}

// NewCache returns an empty per-session cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Prescription)}
}

func cacheKey(learnerID, skillID string) string {
	return learnerID + "\x00" + skillID
}

// Get returns the cached prescription and whether one exists. A cached
// nil is a valid entry: "diagnosed, nothing to prescribe".
func (c *Cache) Get(learnerID, skillID string) (*Prescription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[cacheKey(learnerID, skillID)]
	return p, ok
}

// Put stores a diagnosis result.
func (c *Cache) Put(learnerID, skillID string, p *Prescription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(learnerID, skillID)] = p
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(learnerID, skillID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(learnerID, skillID))
}

// Reset clears the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Prescription)
}
