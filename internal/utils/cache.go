package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a bounded LRU whose entries also expire after a fixed TTL.
// It is safe for concurrent use.
type TTLCache[V any] struct {
	lru *lru.Cache[string, cacheItem[V]]
	ttl time.Duration
}

func NewTTLCache[V any](size int, ttl time.Duration) *TTLCache[V] {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &TTLCache[V]{lru: l, ttl: ttl}
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.lru.Add(key, cacheItem[V]{value: value, expiresAt: time.Now().Add(c.ttl)})
}

// Get returns the cached value, dropping it if it has expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	item, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(item.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return item.value, true
}

func (c *TTLCache[V]) Len() int {
	return c.lru.Len()
}

var (
	markdownCache     *TTLCache[string]
	markdownCacheOnce sync.Once
)

// MarkdownCache holds rendered bodies keyed by a hash of their source.
func MarkdownCache() *TTLCache[string] {
	markdownCacheOnce.Do(func() {
		markdownCache = NewTTLCache[string](1000, 30*time.Minute)
	})
	return markdownCache
}
