package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("page", "https://example.com/a")
	if !strings.HasPrefix(a, "wcagscan:v1:page:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	if a != CacheKey("page", "https://example.com/a#section") {
		t.Error("fragment should not change the key")
	}
	if a == CacheKey("page", "https://example.com/b") {
		t.Error("different URLs should have different keys")
	}
	if a == CacheKey("robots", "https://example.com/a") {
		t.Error("namespaces should not collide")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	_ = c.Set("k", []byte("v"), 0)
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Errorf("expected hit with v, got %q %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := CacheKey("page", "https://example.com/")
	if err := c.Set(key, []byte("<html></html>"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := c.Get(key); !ok || string(v) != "<html></html>" {
		t.Errorf("expected stored value, got %q %v", v, ok)
	}

	if err := c.Set("short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "short.cache")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}

	if err := c.Delete("never-set"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_ClearKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	_ = c.Set("a", []byte("1"), 0)
	foreign := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected cache entry to be cleared")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("Clear removed a file it does not own")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	warm := NewLayeredCache(time.Minute, dir, time.Hour)
	_ = warm.Set("k", []byte("v"), 0)

	// A fresh process has an empty memory layer
	cold := NewLayeredCache(time.Minute, dir, time.Hour)
	if v, ok := cold.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("expected disk hit, got %q %v", v, ok)
	}
	if v, ok := cold.memory.Get("k"); !ok || string(v) != "v" {
		t.Error("disk hit should be promoted to memory")
	}
}

func TestPageCache(t *testing.T) {
	pc := NewPageCache(NewMemoryOnly(time.Minute), 0)
	if _, ok := pc.Get("https://example.com/"); ok {
		t.Fatal("expected miss")
	}

	entry := &PageEntry{
		URL:         "https://example.com/",
		FinalURL:    "https://www.example.com/",
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte("<title>x</title>"),
		FetchedAt:   time.Now(),
	}
	if err := pc.Put(entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok := pc.Get("https://example.com/")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.FinalURL != entry.FinalURL || string(got.Body) != string(entry.Body) {
		t.Errorf("unexpected entry: %+v", got)
	}

	var nilCache *PageCache
	if _, ok := nilCache.Get("x"); ok {
		t.Error("nil cache should always miss")
	}
}
