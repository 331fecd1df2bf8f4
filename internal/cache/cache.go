package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Store is the byte-level cache interface shared by the memory and disk layers
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates the cache key for an (entity, source) pair
func Key(entity, source string) string {
	normalized := strings.ToLower(strings.TrimSpace(entity)) + "|" + source
	hash := sha256.Sum256([]byte(normalized))
	return "tokenlens:v1:" + hex.EncodeToString(hash[:])
}
