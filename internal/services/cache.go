package services

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the catalog response cache.
const DefaultCacheSize = 32

// Cache stores raw response bodies keyed by request path.
type Cache interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte)
	Len() int
	Purge()
}

// LRUCache is a bounded, concurrency-safe [Cache] that evicts the least recently used entry.
type LRUCache struct {
	entries *lru.Cache[string, []byte]
}

// NewLRUCache creates an LRU cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &LRUCache{entries: entries}, nil
}

func (c *LRUCache) Get(key string) ([]byte, bool) { return c.entries.Get(key) }
func (c *LRUCache) Add(key string, value []byte)  { c.entries.Add(key, value) }
func (c *LRUCache) Len() int                      { return c.entries.Len() }
func (c *LRUCache) Purge()                        { c.entries.Purge() }
