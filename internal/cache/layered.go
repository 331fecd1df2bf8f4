package cache

import "time"

// LayeredStore checks memory first and falls back to disk, promoting disk
// hits back into memory.
type LayeredStore struct {
	memory Store
	disk   Store
}

// NewLayeredStore creates a memory+disk store
func NewLayeredStore(memoryTTL, cleanupInterval time.Duration, diskDir string, diskTTL time.Duration) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(memoryTTL, cleanupInterval),
		disk:   NewDiskStore(diskDir, diskTTL),
	}
}

// Get checks memory, then disk; disk hits are promoted to memory
func (s *LayeredStore) Get(key string) ([]byte, bool) {
	if val, found := s.memory.Get(key); found {
		return val, true
	}
	if val, found := s.disk.Get(key); found {
		_ = s.memory.Set(key, val, 0)
		return val, true
	}
	return nil, false
}

// Set writes through to both layers
func (s *LayeredStore) Set(key string, value []byte, ttl time.Duration) error {
	if err := s.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return s.disk.Set(key, value, ttl)
}

// Delete removes the key from both layers
func (s *LayeredStore) Delete(key string) error {
	_ = s.memory.Delete(key)
	return s.disk.Delete(key)
}

// Clear empties both layers
func (s *LayeredStore) Clear() error {
	_ = s.memory.Clear()
	return s.disk.Clear()
}
