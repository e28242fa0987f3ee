// Package coachcache holds the two-level response cache for AI coaching text:
// a static table of common phrases consulted first at zero cost, then a
// bounded dynamic cache keyed by normalized (message, target language).
package coachcache

import (
	"strings"
	"sync"

	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
)

// DefaultCapacity bounds the dynamic cache. Eviction is insertion-ordered:
// when full, the earliest-stored entry is dropped before the new one goes in.
const DefaultCapacity = 500

type cacheKey struct {
	message  string
	language string
}

// Cache is the process-wide response cache. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[cacheKey]*domain.CoachPayload
	order    []cacheKey
}

// New creates a cache with the given dynamic capacity. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[cacheKey]*domain.CoachPayload, capacity),
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func makeKey(message, language string) cacheKey {
	return cacheKey{message: normalize(message), language: normalize(language)}
}

// Lookup checks the static common-phrase table first, then the dynamic cache.
func (c *Cache) Lookup(message, targetLanguage string) (*domain.CoachPayload, bool) {
	if p, ok := quickPhrases[normalize(message)]; ok {
		metrics.CoachCacheHits.WithLabelValues("static").Inc()
		quick := p
		quick.Quick = true
		return &quick, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.entries[makeKey(message, targetLanguage)]
	if !ok {
		metrics.CoachCacheMisses.Inc()
		return nil, false
	}
	metrics.CoachCacheHits.WithLabelValues("dynamic").Inc()
	return p, true
}

// Store inserts a payload, evicting the earliest-inserted entry when at
// capacity. The bound is enforced synchronously on every call.
func (c *Cache) Store(message, targetLanguage string, payload *domain.CoachPayload) {
	if payload == nil {
		return
	}

	key := makeKey(message, targetLanguage)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = payload
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		metrics.CoachCacheEvictions.Inc()
	}

	c.entries[key] = payload
	c.order = append(c.order, key)
	metrics.CoachCacheSize.Set(float64(len(c.entries)))
}

// Len returns the number of dynamic entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
