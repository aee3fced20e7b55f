package cache

import (
	"sync"
	"time"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a TTL cache for aggregation responses.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
}

func New() *Cache {
	c := &Cache{
		items: make(map[string]entry),
	}

	// Cleanup expired items every hour
	go c.cleanupLoop()

	return c
}

func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return item.value, true
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

const (
	itemCacheMax  = 500
	itemCacheTrim = 100
)

// ItemCache keeps recently aggregated articles by ID for detail lookups.
// Bounded: once past itemCacheMax entries the oldest itemCacheTrim go.
type ItemCache struct {
	mu    sync.Mutex
	items map[string]news.Item
	order []string // insertion order, for trimming
}

func NewItemCache() *ItemCache {
	return &ItemCache{items: make(map[string]news.Item)}
}

func (ic *ItemCache) Put(items []news.Item) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	for _, item := range items {
		if _, exists := ic.items[item.ID]; !exists {
			ic.order = append(ic.order, item.ID)
		}
		ic.items[item.ID] = item
	}

	if len(ic.items) > itemCacheMax {
		for _, id := range ic.order[:itemCacheTrim] {
			delete(ic.items, id)
		}
		ic.order = ic.order[itemCacheTrim:]
	}
}

func (ic *ItemCache) Get(id string) (news.Item, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	item, ok := ic.items[id]
	return item, ok
}

func (ic *ItemCache) Len() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.items)
}
