package utxolrucache

import (
	"sync"

	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
)

type cachedOutput struct {
	output *externalapi.DomainTransactionOutput
	meta   externalapi.OutputMeta
}

// LRUCache is a cache of stored outputs and their confirmation metadata,
// indexed by DomainOutpoint. When full, an arbitrary entry is evicted. It
// is safe for concurrent use, and hands out copies, so callers may mutate
// what they get.
type LRUCache struct {
	mtx      sync.Mutex
	cache    map[externalapi.DomainOutpoint]*cachedOutput
	capacity int
}

// New creates a new LRUCache
func New(capacity int) *LRUCache {
	return &LRUCache{
		cache:    make(map[externalapi.DomainOutpoint]*cachedOutput, capacity+1),
		capacity: capacity,
	}
}

// Add adds an entry to the LRUCache
func (c *LRUCache) Add(key *externalapi.DomainOutpoint, output *externalapi.DomainTransactionOutput,
	meta *externalapi.OutputMeta) {

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, exists := c.cache[*key]; !exists && len(c.cache) >= c.capacity {
		c.evictRandom()
	}
	c.cache[*key] = &cachedOutput{output: output.Clone(), meta: *meta}
}

// Get returns the entry for the given key, or (nil, nil, false) otherwise
func (c *LRUCache) Get(key *externalapi.DomainOutpoint) (
	*externalapi.DomainTransactionOutput, *externalapi.OutputMeta, bool) {

	c.mtx.Lock()
	defer c.mtx.Unlock()

	value, ok := c.cache[*key]
	if !ok {
		return nil, nil, false
	}
	meta := value.meta
	return value.output.Clone(), &meta, true
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache) Has(key *externalapi.DomainOutpoint) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	_, ok := c.cache[*key]
	return ok
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache) Remove(key *externalapi.DomainOutpoint) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	delete(c.cache, *key)
}

// Len returns the number of cached entries
func (c *LRUCache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return len(c.cache)
}

func (c *LRUCache) evictRandom() {
	for key := range c.cache {
		delete(c.cache, key)
		return
	}
}
