package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
)

// DefaultCapacity bounds each in-memory store when no capacity is configured
const DefaultCapacity = 1000

// LRUStore is a bounded in-memory ResponseCache. When full, the least
// recently used entry is evicted.
type LRUStore[V any] struct {
	entries *lru.Cache[string, V]
}

// NewLRUStore creates a store holding at most capacity entries
func NewLRUStore[V any](capacity int) (*LRUStore[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, V](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUStore[V]{entries: entries}, nil
}

var _ providers.ResponseCache[string] = (*LRUStore[string])(nil)

// Get returns the value stored under key
func (s *LRUStore[V]) Get(_ context.Context, key string) (V, bool) {
	return s.entries.Get(key)
}

// Put stores value under key, replacing any previous value
func (s *LRUStore[V]) Put(_ context.Context, key string, value V) {
	s.entries.Add(key, value)
}

// Len returns the number of stored entries
func (s *LRUStore[V]) Len() int {
	return s.entries.Len()
}
