package cache

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wcagscan_page_cache_lookups_total",
	Help: "Page cache lookups by layer that answered (memory, disk, miss).",
}, []string{"layer"})

// LayeredCache implements a multi-layer cache (memory + disk)
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// NewMemoryOnly creates a layered cache without persistence
func NewMemoryOnly(ttl time.Duration) *LayeredCache {
	return &LayeredCache{memory: NewMemoryCache(ttl, 10*time.Minute)}
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		lookups.WithLabelValues("memory").Inc()
		return val, true
	}

	if c.disk != nil {
		if val, found := c.disk.Get(key); found {
			// Promote with the memory layer's default TTL
			_ = c.memory.Set(key, val, 0)
			lookups.WithLabelValues("disk").Inc()
			return val, true
		}
	}

	lookups.WithLabelValues("miss").Inc()
	return nil, false
}

// Set stores a value in both caches
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if c.disk != nil {
		return c.disk.Set(key, value, ttl)
	}
	return nil
}

// Delete removes a value from both caches
func (c *LayeredCache) Delete(key string) error {
	err := c.memory.Delete(key)
	if c.disk != nil {
		err = errors.Join(err, c.disk.Delete(key))
	}
	return err
}

// Clear removes all values from both caches
func (c *LayeredCache) Clear() error {
	err := c.memory.Clear()
	if c.disk != nil {
		err = errors.Join(err, c.disk.Clear())
	}
	return err
}
