package table

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// QueryCache holds fetched pages by query key. A zero ttl keeps entries until evicted by size.
type QueryCache[T any] struct {
	lru *expirable.LRU[string, T]
}

// NewQueryCache holds at most size pages.
func NewQueryCache[T any](size int, ttl time.Duration) *QueryCache[T] {
	if size <= 0 {
		size = 64
	}
	return &QueryCache[T]{lru: expirable.NewLRU[string, T](size, nil, ttl)}
}

// Get returns the cached page for key.
func (c *QueryCache[T]) Get(key string) (T, bool) {
	return c.lru.Get(key)
}

// Add stores a page under key.
func (c *QueryCache[T]) Add(key string, value T) {
	c.lru.Add(key, value)
}

// InvalidateKey drops exactly one entry.
func (c *QueryCache[T]) InvalidateKey(key string) bool {
	return c.lru.Remove(key)
}

// InvalidatePrefix drops every entry under prefix and returns how many were removed.
func (c *QueryCache[T]) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

func (c *QueryCache[T]) Len() int {
	return c.lru.Len()
}
