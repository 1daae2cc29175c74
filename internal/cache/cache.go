// Package cache stores fetched pages in a memory layer over a disk layer.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "wcagscan:v1:"

// CacheKey generates a cache key from a namespace and a URL.
// Fragments never reach the server, so they are dropped.
func CacheKey(namespace, url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url = url[:i]
	}
	hash := sha256.Sum256([]byte(url))
	return keyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}
