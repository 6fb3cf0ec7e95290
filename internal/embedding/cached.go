package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of embeddings kept in memory.
const DefaultCacheSize = 1000

// CachedProvider wraps a Provider with an LRU cache keyed on text, so
// re-embedding the same chunk text (re-indexing an unchanged document,
// a repeated query) skips the inner provider entirely.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCachedProvider wraps inner with an LRU cache of the given size. A
// non-positive size falls back to DefaultCacheSize.
func NewCachedProvider(inner Provider, cacheSize int) *CachedProvider {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedProvider{inner: inner, cache: cache}
}

func (c *CachedProvider) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// Embed returns the cached embedding if present, otherwise computes it
// via the inner provider and caches the result.
func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// Dimensions returns the embedding dimension (passthrough to inner).
func (c *CachedProvider) Dimensions() int {
	return c.inner.Dimensions()
}

// Inner returns the wrapped provider.
func (c *CachedProvider) Inner() Provider {
	return c.inner
}

var _ Provider = (*CachedProvider)(nil)
