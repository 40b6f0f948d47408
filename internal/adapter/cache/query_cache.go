package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

var _ port.Embedder = (*CachedEmbedder)(nil)

// VectorCache is an LRU cache of embeddings with a TTL per entry.
type VectorCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	vector    []float32
	timestamp time.Time
}

func NewVectorCache(maxSize int, ttl time.Duration) *VectorCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &VectorCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(model, text string) string {
	data := make([]byte, 0, len(model)+1+len(text))
	data = append(data, model...)
	data = append(data, 0)
	data = append(data, text...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *VectorCache) Get(model, text string) ([]float32, bool) {
	key := cacheKey(model, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.moveToEnd(key)
	c.hits++
	return entry.vector, true
}

func (c *VectorCache) Put(model, text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, text)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{vector: vector, timestamp: time.Now()}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{vector: vector, timestamp: time.Now()}
	c.order = append(c.order, key)
}

func (c *VectorCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *VectorCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *VectorCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *VectorCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *VectorCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *VectorCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedEmbedder memoises per-text vectors of another embedder. Only the
// texts missing from the cache reach the wrapped embedder, in one call.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *VectorCache
}

func NewCachedEmbedder(embedder port.Embedder, maxSize int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    NewVectorCache(maxSize, ttl),
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.embedder.ModelName()
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, hit := e.cache.Get(model, text); hit {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := e.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		e.cache.Put(model, missing[j], vec)
	}
	return out, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}

// Cache exposes the underlying cache, mostly for stats.
func (e *CachedEmbedder) Cache() *VectorCache {
	return e.cache
}
