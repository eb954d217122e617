package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

const defaultConcurrency = 10

// OpenAIEmbedder uses OpenAI API for embeddings
type OpenAIEmbedder struct {
	client      *openai.Client
	model       string
	dim         int
	concurrency int
	state       vocabState
}

// OpenAIOptions configures NewOpenAIEmbedder
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string // empty for api.openai.com
	Concurrency int    // parallel requests in EmbedBatch, default 10
}

// NewOpenAIEmbedder creates an OpenAI embedder
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	if opts.Model == "" {
		opts.Model = string(openai.SmallEmbedding3)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	// Set dimension based on model
	dim := 1536 // text-embedding-3-small and ada-002
	if opts.Model == string(openai.LargeEmbedding3) {
		dim = 3072
	}

	return &OpenAIEmbedder{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		dim:         dim,
		concurrency: opts.Concurrency,
	}, nil
}

// BuildVocab marks the embedder ready. The remote model has its own
// tokenizer, so the vocabulary is only kept for reporting.
func (e *OpenAIEmbedder) BuildVocab(_ context.Context, sentences []string) error {
	e.state.set(NewVocabulary(sentences))
	return nil
}

// Embed generates an embedding for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.state.ready(); err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return nil, errors.New("cannot embed empty text")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned from API")
	}

	src := resp.Data[0].Embedding
	v := make([]float32, len(src))
	for i := range src {
		v[i] = float32(src[i])
	}

	// L2 normalize (important for cosine similarity)
	l2normalize(v)

	return v, nil
}

// EmbedBatch generates embeddings for multiple texts with parallel processing.
// The first error cancels the requests still in flight.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.state.ready(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	embeddings := make([][]float32, len(texts))
	sem := make(chan struct{}, e.concurrency)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for i := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			emb, err := e.Embed(ctx, texts[idx])
			if err != nil {
				once.Do(func() {
					firstErr = fmt.Errorf("text %d: %w", idx, err)
					cancel()
				})
				return
			}
			embeddings[idx] = emb
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information
func (e *OpenAIEmbedder) ModelInfo() string {
	return "openai-" + e.model
}
