package aggregate

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"teltrip/internal/types"
)

// templateCacheSize is generous relative to the template population of any
// reseller; the cache effectively lives for the process lifetime.
const templateCacheSize = 4096

// TemplateCostCache memoizes resolved template costs per template ID.
// Template cost is near-static reference data, so entries carry no TTL:
// the cache is cleared only on process restart or an explicit Purge.
//
// The cache is an explicit, injectable component rather than package-level
// state so tests can exercise resolution with a fresh instance.
type TemplateCostCache struct {
	entries *lru.Cache[int64, types.TemplateCost]
}

// NewTemplateCostCache creates an empty cache.
func NewTemplateCostCache() (*TemplateCostCache, error) {
	entries, err := lru.New[int64, types.TemplateCost](templateCacheSize)
	if err != nil {
		return nil, err
	}
	return &TemplateCostCache{entries: entries}, nil
}

// Get returns the cached cost for the template ID, if present.
func (c *TemplateCostCache) Get(templateID int64) (types.TemplateCost, bool) {
	return c.entries.Get(templateID)
}

// Set stores the resolved cost for the template ID.
func (c *TemplateCostCache) Set(templateID int64, cost types.TemplateCost) {
	c.entries.Add(templateID, cost)
}

// Purge drops every cached entry. Exposed for explicit invalidation; the
// normal lifecycle never calls it.
func (c *TemplateCostCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached templates.
func (c *TemplateCostCache) Len() int {
	return c.entries.Len()
}
