// Package cache stores downloaded dataset bytes so repeated mining runs
// against the same URL do not re-download the file.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte store with per-entry TTLs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a dataset URL. Hashing keeps keys
// filesystem-safe for the disk layer.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "affin:v1:" + hex.EncodeToString(sum[:])
}
