// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package highlight tokenizes code block content for display. Results are
// cached in memory; tokenization decorates rendering only and never feeds
// back into document content.
package highlight

import (
	"sync"
)

// =============================================================================
// TOKEN CACHE
// =============================================================================

// cacheKey identifies one tokenization result.
type cacheKey struct {
	language string
	code     string
}

// Cache is a fixed-capacity result cache with insertion-order eviction:
// when full, the oldest inserted entry goes first, regardless of how
// recently it was read. Composer code blocks are retokenized on every
// keystroke, so the same small set of keys repeats heavily.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[cacheKey][]Row
	order    []cacheKey
}

// NewCache returns a cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[cacheKey][]Row, capacity),
		order:    make([]cacheKey, 0, capacity),
	}
}

// Get returns the cached rows for a key.
func (c *Cache) Get(language, code string) ([]Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, ok := c.entries[cacheKey{language, code}]
	return rows, ok
}

// Put stores rows, evicting the oldest inserted entry when full. Storing
// an existing key refreshes its value without changing its position.
func (c *Cache) Put(language, code string, rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := cacheKey{language, code}
	if _, exists := c.entries[k]; exists {
		c.entries[k] = rows
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[k] = rows
	c.order = append(c.order, k)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
