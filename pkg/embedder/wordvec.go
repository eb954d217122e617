package embedder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/perbu/squadsent/pkg/tokenizer"
)

// Pooling reduces a sequence of word vectors to one sentence vector
type Pooling string

const (
	MaxPooling  Pooling = "max"
	MeanPooling Pooling = "mean"
)

// ParsePooling parses "max" or "mean". Empty means max.
func ParsePooling(s string) (Pooling, error) {
	switch Pooling(strings.ToLower(s)) {
	case "", MaxPooling:
		return MaxPooling, nil
	case MeanPooling:
		return MeanPooling, nil
	default:
		return "", fmt.Errorf("unknown pooling %q (want max or mean)", s)
	}
}

// WordVectorEmbedder encodes sentences by pooling pretrained word vectors
// (GloVe or fastText text format, optionally gzip compressed).
// Only vectors for words in the vocabulary are loaded.
type WordVectorEmbedder struct {
	path    string
	pooling Pooling
	open    func() (io.ReadCloser, error)

	mu      sync.RWMutex
	vectors map[string][]float32
	dim     int
}

// NewWordVectorEmbedder creates an embedder over the vector file at path.
// The file is not read until BuildVocab.
func NewWordVectorEmbedder(path string, pooling Pooling) (*WordVectorEmbedder, error) {
	if path == "" {
		return nil, errors.New("word vector path not set")
	}
	if pooling == "" {
		pooling = MaxPooling
	}
	return &WordVectorEmbedder{
		path:    path,
		pooling: pooling,
		open:    func() (io.ReadCloser, error) { return openVectors(path) },
	}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

func openVectors(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return gzipFile{Reader: zr, f: f}, nil
}

// BuildVocab collects the corpus words and loads their vectors
func (e *WordVectorEmbedder) BuildVocab(ctx context.Context, sentences []string) error {
	vocab := NewVocabulary(sentences)
	wanted := make(map[string]struct{}, len(vocab)*2)
	for w := range vocab {
		wanted[w] = struct{}{}
		wanted[strings.ToLower(w)] = struct{}{}
	}

	r, err := e.open()
	if err != nil {
		return fmt.Errorf("opening word vectors: %w", err)
	}
	defer r.Close()

	vectors, dim, err := readVectors(ctx, r, wanted)
	if err != nil {
		return fmt.Errorf("reading %s: %w", e.path, err)
	}
	if dim == 0 {
		return fmt.Errorf("no vectors for any of %d vocabulary words in %s", len(vocab), e.path)
	}

	log.Debug().Int("vocab", len(vocab)).Int("found", len(vectors)).Int("dim", dim).Msg("word vectors loaded")

	e.mu.Lock()
	e.vectors = vectors
	e.dim = dim
	e.mu.Unlock()
	return nil
}

// readVectors parses "word v1 v2 ... vn" lines, keeping wanted words.
// A fastText "count dim" header line is skipped.
func readVectors(ctx context.Context, r io.Reader, wanted map[string]struct{}) (map[string][]float32, int, error) {
	vectors := make(map[string][]float32)
	dim := 0
	skipped := 0

	reader := bufio.NewReaderSize(r, 1<<20)
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, 0, err
		}
		if lineNo%100000 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return nil, 0, cerr
			}
		}

		line = strings.TrimRight(line, "\r\n")
		word, rest, ok := strings.Cut(line, " ")
		if ok {
			if _, want := wanted[word]; want {
				fields := strings.Fields(rest)
				// fastText header: "2000000 300"
				if lineNo == 1 && len(fields) == 1 {
					fields = nil
				}
				if len(fields) > 0 && (dim == 0 || len(fields) == dim) {
					vec, perr := parseVector(fields)
					if perr != nil {
						return nil, 0, fmt.Errorf("line %d: %w", lineNo, perr)
					}
					vectors[word] = vec
					dim = len(vec)
				} else if len(fields) > 0 {
					skipped++
				}
			}
		}

		if err == io.EOF {
			break
		}
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("dim", dim).Msg("word vectors with mismatched dimension ignored")
	}
	return vectors, dim, nil
}

func parseVector(fields []string) ([]float32, error) {
	vec := make([]float32, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		vec[i] = float32(n)
	}
	return vec, nil
}

func (e *WordVectorEmbedder) lookup(word string) []float32 {
	if v, ok := e.vectors[word]; ok {
		return v
	}
	return e.vectors[strings.ToLower(word)]
}

// Embed pools the vectors of the known words in text.
// Text without a single known word encodes to the zero vector.
func (e *WordVectorEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.vectors == nil {
		return nil, ErrVocabNotBuilt
	}

	out := make([]float32, e.dim)
	n := 0
	for _, w := range tokenizer.Words(text) {
		v := e.lookup(w)
		if v == nil {
			continue
		}
		switch e.pooling {
		case MeanPooling:
			for i := range out {
				out[i] += v[i]
			}
		default:
			for i := range out {
				if n == 0 || v[i] > out[i] {
					out[i] = v[i]
				}
			}
		}
		n++
	}
	if n == 0 {
		return out, nil
	}
	if e.pooling == MeanPooling {
		for i := range out {
			out[i] /= float32(n)
		}
	}
	l2normalize(out)
	return out, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *WordVectorEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

// Dimension returns the embedding dimension, 0 before BuildVocab
func (e *WordVectorEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dim
}

// ModelInfo returns model information
func (e *WordVectorEmbedder) ModelInfo() string {
	return fmt.Sprintf("wordvec-%s-%s", e.pooling, filepath.Base(e.path))
}
