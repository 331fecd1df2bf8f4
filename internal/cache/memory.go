package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is the in-process cache layer
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store with the given default TTL and
// expiry sweep interval
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value, reporting false for absent or expired entries
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	if val, found := s.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value with the given TTL (0 means the store default)
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Clear removes all values
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}
