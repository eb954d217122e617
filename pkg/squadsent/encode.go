package squadsent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/perbu/squadsent/pkg/embedder"
)

// EncodeOptions controls Encode
type EncodeOptions struct {
	Limit       int  // encode only the first Limit passages, 0 for all
	SkipAnswers bool // leave PassageEmbedding.Answers empty

	// Prior holds embeddings from an earlier run, indexed like the passages.
	// Passages for which Done returns true are taken from Prior.
	Prior []PassageEmbedding
	Done  func(i int) bool

	// OnPassage is called after each newly encoded passage. A non-nil
	// error stops encoding.
	OnPassage func(i int, pe PassageEmbedding) error
	// Progress is called after each passage with (completed, total)
	Progress func(done, total int)
}

// BuildVocab builds the encoder vocabulary from the passages.
// It must run before any passage is encoded.
func BuildVocab(ctx context.Context, emb embedder.Embedder, passages []Passage) error {
	corpus := Corpus(passages)
	log.Debug().Int("texts", len(corpus)).Msg("building vocabulary")
	if err := emb.BuildVocab(ctx, corpus); err != nil {
		return fmt.Errorf("building vocabulary: %w", err)
	}
	return nil
}

// EncodePassage encodes the sentences, questions and (optionally) answers of p
func EncodePassage(ctx context.Context, emb embedder.Embedder, p Passage, withAnswers bool) (PassageEmbedding, error) {
	var pe PassageEmbedding
	var err error

	if pe.Sentences, err = encodeGroup(ctx, emb, p.Sentences); err != nil {
		return pe, fmt.Errorf("sentences: %w", err)
	}

	questions := make([]string, len(p.Samples))
	answers := make([]string, len(p.Samples))
	for i, s := range p.Samples {
		questions[i] = s.Question
		answers[i] = s.Answer
	}
	if pe.Questions, err = encodeGroup(ctx, emb, questions); err != nil {
		return pe, fmt.Errorf("questions: %w", err)
	}
	if withAnswers {
		if pe.Answers, err = encodeGroup(ctx, emb, answers); err != nil {
			return pe, fmt.Errorf("answers: %w", err)
		}
	}
	return pe, nil
}

func encodeGroup(ctx context.Context, emb embedder.Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return emb.EmbedBatch(ctx, texts)
}

// Encode builds the vocabulary and encodes the passages in order.
// On error the partially filled data is returned with it.
func Encode(ctx context.Context, emb embedder.Embedder, passages []Passage, opts EncodeOptions) (*EmbeddingData, error) {
	if err := BuildVocab(ctx, emb, passages); err != nil {
		return nil, err
	}

	todo := passages
	if opts.Limit > 0 && opts.Limit < len(passages) {
		todo = passages[:opts.Limit]
	}

	data := &EmbeddingData{
		Passages:   todo,
		Embeddings: make([]PassageEmbedding, len(todo)),
		ModelInfo:  emb.ModelInfo(),
	}
	copy(data.Embeddings, opts.Prior)

	completed := 0
	for i, p := range todo {
		if opts.Done != nil && opts.Done(i) {
			completed++
			continue
		}
		if err := ctx.Err(); err != nil {
			return data, err
		}
		pe, err := EncodePassage(ctx, emb, p, !opts.SkipAnswers)
		if err != nil {
			return data, fmt.Errorf("passage %d (%s): %w", i, p.Title, err)
		}
		data.Embeddings[i] = pe
		completed++
		if opts.OnPassage != nil {
			if err := opts.OnPassage(i, pe); err != nil {
				return data, err
			}
		}
		if opts.Progress != nil {
			opts.Progress(completed, len(todo))
		}
	}
	data.Dimension = dimension(emb, data.Embeddings)
	return data, nil
}

// dimension prefers the encoder's answer and falls back to the stored
// vectors, for remote encoders that learn it from their first response.
func dimension(emb embedder.Embedder, embeddings []PassageEmbedding) int {
	if d := emb.Dimension(); d > 0 {
		return d
	}
	for _, pe := range embeddings {
		for _, group := range [][][]float32{pe.Sentences, pe.Questions, pe.Answers} {
			if len(group) > 0 {
				return len(group[0])
			}
		}
	}
	return 0
}
