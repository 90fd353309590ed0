package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.QueryCache = (*QueryCache)(nil)

// QueryCache is an in-process LRU of retrieval results. Entries expire after
// ttl and are all dropped by Invalidate.
type QueryCache struct {
	mu      sync.Mutex
	lru     *list.List // front is most recently used
	entries map[string]*list.Element
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	key       string
	results   []domain.ScoredChunk
	expiresAt time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		lru:     list.New(),
		entries: make(map[string]*list.Element, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey is shared with RedisCache.
func cacheKey(query string, topK int) string {
	hash := sha256.Sum256([]byte(strconv.Itoa(topK) + "\x00" + query))
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(_ context.Context, query string, topK int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[cacheKey(query, topK)]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.remove(el)
		return nil, false
	}
	c.lru.MoveToFront(el)
	return entry.results, true
}

// Put stores a copy of results, evicting the least recently used entry when
// the cache is full.
func (c *QueryCache) Put(_ context.Context, query string, topK int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		key:       key,
		results:   append([]domain.ScoredChunk(nil), results...),
		expiresAt: c.now().Add(c.ttl),
	}

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.lru.MoveToFront(el)
		return
	}
	if c.lru.Len() >= c.maxSize {
		c.remove(c.lru.Back())
	}
	c.entries[key] = c.lru.PushFront(entry)
}

func (c *QueryCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Init()
	clear(c.entries)
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *QueryCache) remove(el *list.Element) {
	c.lru.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}
