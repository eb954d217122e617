package embedder

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/perbu/squadsent/pkg/tokenizer"
)

// ErrVocabNotBuilt is returned when encoding is attempted before BuildVocab
var ErrVocabNotBuilt = errors.New("embedder: vocabulary not built")

// Embedder interface for generating embeddings.
// BuildVocab must be called before Embed or EmbedBatch.
type Embedder interface {
	BuildVocab(ctx context.Context, sentences []string) error
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelInfo() string
}

// Vocabulary is the set of word tokens seen in a corpus
type Vocabulary map[string]struct{}

// NewVocabulary tokenizes sentences into words
func NewVocabulary(sentences []string) Vocabulary {
	v := make(Vocabulary)
	for _, s := range sentences {
		for _, w := range tokenizer.Words(s) {
			v[w] = struct{}{}
		}
	}
	return v
}

// vocabState tracks whether BuildVocab has run
type vocabState struct {
	mu    sync.RWMutex
	vocab Vocabulary
}

func (s *vocabState) set(v Vocabulary) {
	s.mu.Lock()
	s.vocab = v
	s.mu.Unlock()
}

func (s *vocabState) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.vocab == nil {
		return ErrVocabNotBuilt
	}
	return nil
}

func (s *vocabState) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vocab)
}

// SimpleEmbedder hashes word tokens into a fixed number of buckets.
// It has no semantic knowledge and exists for dry runs and tests.
type SimpleEmbedder struct {
	dim   int
	state vocabState
}

// NewSimpleEmbedder creates a hashing embedder
func NewSimpleEmbedder(dimension int) *SimpleEmbedder {
	return &SimpleEmbedder{dim: dimension}
}

// BuildVocab records the corpus vocabulary
func (e *SimpleEmbedder) BuildVocab(_ context.Context, sentences []string) error {
	e.state.set(NewVocabulary(sentences))
	return nil
}

// Embed generates a bag-of-words hash vector for text
func (e *SimpleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if err := e.state.ready(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dim)
	for _, w := range tokenizer.Words(text) {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[int(h.Sum32()%uint32(e.dim))] += 1
	}
	l2normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *SimpleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension
func (e *SimpleEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information
func (e *SimpleEmbedder) ModelInfo() string {
	return fmt.Sprintf("simple-hash-%d", e.dim)
}

// l2normalize normalizes a vector to unit length
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
