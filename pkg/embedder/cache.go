package embedder

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClient memoizes embeddings per text in an LRU cache.
type CachedClient struct {
	Client
	cache *lru.Cache[string, []float32]
}

// NewCachedClient wraps client with a cache holding up to size vectors.
func NewCachedClient(client Client, size int) (*CachedClient, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedClient{Client: client, cache: cache}, nil
}

// Embed serves cached vectors and embeds all misses in a single call to the
// wrapped client. Duplicate texts within one call are embedded once.
func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	pending := make(map[string][]int)
	var misses []string

	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		if _, seen := pending[t]; !seen {
			misses = append(misses, t)
		}
		pending[t] = append(pending[t], i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	vectors, err := c.Client.Embed(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(misses) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(misses))
	}
	for i, t := range misses {
		c.cache.Add(t, vectors[i])
		for _, j := range pending[t] {
			out[j] = vectors[i]
		}
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *CachedClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, c, text)
}

// Len returns the number of cached vectors.
func (c *CachedClient) Len() int {
	return c.cache.Len()
}
