package embedder

import (
	"fmt"

	"github.com/perbu/squadsent/pkg/config"
)

// New builds the embedder selected by cfg.Provider, wrapped in a cache when
// cfg.CacheSize is positive. The returned embedder still needs BuildVocab.
func New(cfg config.Embedder) (Embedder, error) {
	var (
		emb Embedder
		err error
	)
	switch cfg.Provider {
	case "wordvec":
		var pooling Pooling
		pooling, err = ParsePooling(cfg.Pooling)
		if err != nil {
			return nil, err
		}
		emb, err = NewWordVectorEmbedder(cfg.WordVectors, pooling)
	case "openai":
		emb, err = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Concurrency: cfg.Concurrency,
		})
	case "ollama":
		emb, err = NewOllamaEmbedder(OllamaOptions{
			ServerURL: cfg.BaseURL,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
		})
	case "simple":
		if cfg.Dimension <= 0 {
			return nil, fmt.Errorf("simple embedder needs a positive dimension, got %d", cfg.Dimension)
		}
		emb = NewSimpleEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(emb, cfg.CacheSize)
	}
	return emb, nil
}
