package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of converted documents kept when the
// configured size is not positive.
const DefaultCacheSize = 128

// ResultCache keeps recently converted documents keyed by a hash of the
// format and input bytes. Conversion is deterministic, so a hit is always
// the same bytes a fresh conversion would produce.
type ResultCache struct {
	entries *lru.Cache[string, []byte]
}

// NewResultCache creates a cache holding at most size documents.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &ResultCache{entries: entries}, nil
}

// CacheKey hashes the normalized format and the input.
func CacheKey(format Format, input []byte) string {
	h := sha256.New()
	h.Write([]byte(NormalizeFormat(format)))
	h.Write([]byte{0})
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached document for key. Callers must not modify it.
func (c *ResultCache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

// Add stores a converted document.
func (c *ResultCache) Add(key string, doc []byte) {
	if c == nil {
		return
	}
	c.entries.Add(key, doc)
}

// Len returns the number of cached documents.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every cached document.
func (c *ResultCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
