package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder calls a local Ollama server through langchaingo
type OllamaEmbedder struct {
	client embeddings.Embedder
	model  string
	state  vocabState

	mu  sync.Mutex
	dim int
}

// OllamaOptions configures NewOllamaEmbedder
type OllamaOptions struct {
	ServerURL string
	Model     string
	BatchSize int
}

// NewOllamaEmbedder connects to the Ollama server at opts.ServerURL
func NewOllamaEmbedder(opts OllamaOptions) (*OllamaEmbedder, error) {
	if opts.Model == "" {
		return nil, errors.New("ollama embedding model not set")
	}

	llmOpts := []ollama.Option{ollama.WithModel(opts.Model)}
	if opts.ServerURL != "" {
		llmOpts = append(llmOpts, ollama.WithServerURL(opts.ServerURL))
	}
	llm, err := ollama.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama client: %w", err)
	}

	var embOpts []embeddings.Option
	if opts.BatchSize > 0 {
		embOpts = append(embOpts, embeddings.WithBatchSize(opts.BatchSize))
	}
	client, err := embeddings.NewEmbedder(llm, embOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama embedder: %w", err)
	}

	log.Debug().Str("server", opts.ServerURL).Str("model", opts.Model).Msg("ollama embedder ready")
	return newOllamaEmbedder(client, opts.Model), nil
}

func newOllamaEmbedder(client embeddings.Embedder, model string) *OllamaEmbedder {
	return &OllamaEmbedder{client: client, model: model}
}

// BuildVocab marks the embedder ready; the model tokenizes on the server
func (e *OllamaEmbedder) BuildVocab(_ context.Context, sentences []string) error {
	e.state.set(NewVocabulary(sentences))
	return nil
}

// Embed generates an embedding for a single text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.state.ready(); err != nil {
		return nil, err
	}
	v, err := e.client.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	e.observe(v)
	l2normalize(v)
	return v, nil
}

// EmbedBatch embeds texts in one request batch
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.state.ready(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(vecs), len(texts))
	}
	for _, v := range vecs {
		e.observe(v)
		l2normalize(v)
	}
	return vecs, nil
}

// observe records the dimension reported by the server
func (e *OllamaEmbedder) observe(v []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dim == 0 {
		e.dim = len(v)
	}
}

// Dimension returns the embedding dimension, 0 until the first response
func (e *OllamaEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

// ModelInfo returns model information
func (e *OllamaEmbedder) ModelInfo() string {
	return "ollama-" + e.model
}
