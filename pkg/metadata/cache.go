// Package metadata discovers and caches object-structure shapes.
//
// Maximo exposes no cheap schema endpoint, so a shape is inferred by
// sampling one record with oslc.select=* and taking its top-level keys.
// Results are cached per (tenant, object structure) with a TTL.
package metadata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/assetbridge/maxgw/pkg/oslc"
)

// Querier is the slice of the OSLC client shape discovery needs.
type Querier interface {
	Query(ctx context.Context, objectStructure string, args oslc.QueryArgs) (*oslc.QueryResult, error)
}

// Shape is the inferred field set of one object structure.
type Shape struct {
	ObjectStructure string    `json:"objectStructure"`
	Fields          []string  `json:"fields"`
	Sampled         bool      `json:"sampled"`
	DiscoveredAt    time.Time `json:"discoveredAt"`
}

type entry struct {
	shape     *Shape
	expiresAt time.Time
	lastUsed  time.Time
}

// Cache holds discovered shapes with per-entry expiry. It is bounded; when
// full the least recently used entry is evicted.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time
}

const defaultMaxEntries = 512

// NewCache builds a cache with the process-wide default TTL. A zero or
// negative defaultTTLSeconds falls back to one hour.
func NewCache(defaultTTLSeconds int) *Cache {
	if defaultTTLSeconds <= 0 {
		defaultTTLSeconds = 3600
	}
	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: defaultMaxEntries,
		defaultTTL: time.Duration(defaultTTLSeconds) * time.Second,
		now:        time.Now,
	}
}

// GetShape returns the cached shape for (tenantID, objectStructure) or
// discovers it through q. TTL resolution: the per-call override wins over
// the tenant setting, which wins over the process default.
//
// Concurrent misses for the same key may each probe upstream; the last
// writer wins. The probe is a single pageSize=1 read, so the duplicate work
// is cheaper than the locking it would take to avoid it.
func (c *Cache) GetShape(ctx context.Context, tenantID, objectStructure string, q Querier, tenantTTLSeconds, overrideTTLSeconds int) (*Shape, error) {
	key := tenantID + "/" + objectStructure

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		e.lastUsed = c.now()
		c.entries[key] = e
		c.mu.Unlock()
		return e.shape, nil
	}
	c.mu.Unlock()

	shape, err := discover(ctx, q, objectStructure, c.now())
	if err != nil {
		return nil, err
	}

	ttl := c.defaultTTL
	if tenantTTLSeconds > 0 {
		ttl = time.Duration(tenantTTLSeconds) * time.Second
	}
	if overrideTTLSeconds > 0 {
		ttl = time.Duration(overrideTTLSeconds) * time.Second
	}

	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = entry{shape: shape, expiresAt: c.now().Add(ttl), lastUsed: c.now()}
	c.mu.Unlock()
	return shape, nil
}

// Invalidate drops every cached shape for a tenant. Called when tenant
// config changes so stale field sets do not outlive the tenant they
// described.
func (c *Cache) Invalidate(tenantID string) {
	prefix := tenantID + "/"
	c.mu.Lock()
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops the least recently used entry. Reads bump lastUsed, so
// a hot shape survives capacity pressure over one that was never re-read.
func (c *Cache) evictLocked() {
	var oldest string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldest == "" || e.lastUsed.Before(oldestAt) {
			oldest = k
			oldestAt = e.lastUsed
		}
	}
	if oldest != "" {
		delete(c.entries, oldest)
	}
}

// discover samples one record and takes its top-level keys as the field
// set. An empty object structure yields an unsampled shape with no fields
// rather than an error.
func discover(ctx context.Context, q Querier, objectStructure string, at time.Time) (*Shape, error) {
	out, err := q.Query(ctx, objectStructure, oslc.QueryArgs{
		Select:   "*",
		PageSize: 1,
		Start:    0,
	})
	if err != nil {
		return nil, err
	}

	shape := &Shape{
		ObjectStructure: objectStructure,
		Fields:          []string{},
		DiscoveredAt:    at,
	}
	if len(out.Items) == 0 {
		return shape, nil
	}
	for k := range out.Items[0] {
		shape.Fields = append(shape.Fields, k)
	}
	sort.Strings(shape.Fields)
	shape.Sampled = true
	return shape, nil
}
