package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStore is the persistent cache layer. Entries carry their own expiry
// so a restarted process still honors the original TTL.
type DiskStore struct {
	dir string
	ttl time.Duration
}

// NewDiskStore creates a disk store rooted at dir
func NewDiskStore(dir string, defaultTTL time.Duration) *DiskStore {
	return &DiskStore{dir: dir, ttl: defaultTTL}
}

type diskEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value, deleting and missing on expired entries
func (s *DiskStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(s.path(key))
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(s.path(key))
		return nil, false
	}
	return entry.Data, true
}

// Set stores a value with the given TTL (0 means the store default)
func (s *DiskStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	entry := diskEntry{Data: value, ExpiresAt: time.Now().Add(ttl)}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes a value
func (s *DiskStore) Delete(key string) error {
	return os.Remove(s.path(key))
}

// Clear removes every cached file
func (s *DiskStore) Clear() error {
	return os.RemoveAll(s.dir)
}

// Sweep deletes expired entries and returns how many were removed
func (s *DiskStore) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	now := time.Now()
	for _, f := range entries {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".cache") {
			continue
		}
		path := filepath.Join(s.dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry diskEntry
		if err := json.Unmarshal(data, &entry); err != nil || now.After(entry.ExpiresAt) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, key+".cache")
}
