package embedder

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// CachedEmbedder memoizes embeddings by text. SQuAD repeats answer strings
// and near-identical questions often enough for this to save remote calls.
type CachedEmbedder struct {
	Embedder
	cache        *lru.Cache
	hits, misses atomic.Int64
}

// NewCachedEmbedder wraps inner with an LRU cache holding up to size vectors
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &CachedEmbedder{Embedder: inner, cache: cache}, nil
}

// BuildVocab forwards to the wrapped embedder and drops cached vectors,
// which may have come from a different vocabulary.
func (c *CachedEmbedder) BuildVocab(ctx context.Context, sentences []string) error {
	c.cache.Purge()
	return c.Embedder.BuildVocab(ctx, sentences)
}

// Embed returns the cached vector for text or computes it
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		c.hits.Add(1)
		return v.([]float32), nil
	}
	c.misses.Add(1)
	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, v)
	return v, nil
}

// EmbedBatch serves cached texts and sends the rest to the wrapped embedder in one batch
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			c.hits.Add(1)
			out[i] = v.([]float32)
			continue
		}
		c.misses.Add(1)
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.Embedder.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range vecs {
		out[missingIdx[j]] = v
		c.cache.Add(missing[j], v)
	}
	return out, nil
}

// Stats returns cache hits and misses
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
