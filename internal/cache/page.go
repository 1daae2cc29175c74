package cache

import (
	"encoding/json"
	"time"
)

// PageEntry is a fetched page as stored in the cache
type PageEntry struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// PageCache stores PageEntry values keyed by request URL
type PageCache struct {
	store Cache
	ttl   time.Duration
}

// NewPageCache wraps store; ttl <= 0 defers to the store's defaults
func NewPageCache(store Cache, ttl time.Duration) *PageCache {
	return &PageCache{store: store, ttl: ttl}
}

// Get returns the cached page for url
func (c *PageCache) Get(url string) (*PageEntry, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	raw, ok := c.store.Get(CacheKey("page", url))
	if !ok {
		return nil, false
	}
	var entry PageEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = c.store.Delete(CacheKey("page", url))
		return nil, false
	}
	return &entry, true
}

// Put stores entry under its request URL
func (c *PageCache) Put(entry *PageEntry) error {
	if c == nil || c.store == nil || entry == nil {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.store.Set(CacheKey("page", entry.URL), raw, c.ttl)
}

// Clear drops every cached page
func (c *PageCache) Clear() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Clear()
}
