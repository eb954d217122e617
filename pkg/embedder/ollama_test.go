package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLangchain struct {
	vec   []float32
	short bool
	err   error
	docs  int
}

func (f *fakeLangchain) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs += len(texts)
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = append([]float32(nil), f.vec...)
	}
	return out, nil
}

func (f *fakeLangchain) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]float32(nil), f.vec...), nil
}

func TestOllamaEmbedder(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLangchain{vec: []float32{0, 3, 4}}
	e := newOllamaEmbedder(fake, "nomic-embed-text")

	_, err := e.EmbedBatch(ctx, []string{"x"})
	require.ErrorIs(t, err, ErrVocabNotBuilt)
	assert.Zero(t, e.Dimension())

	require.NoError(t, e.BuildVocab(ctx, []string{"x"}))

	v, err := e.Embed(ctx, "x")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 0.6, 0.8}, v, 1e-6)
	assert.Equal(t, 3, e.Dimension())

	batch, err := e.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, 2, fake.docs)

	empty, err := e.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Equal(t, "ollama-nomic-embed-text", e.ModelInfo())
}

func TestOllamaEmbedder_Errors(t *testing.T) {
	ctx := context.Background()

	e := newOllamaEmbedder(&fakeLangchain{err: errors.New("connection refused")}, "m")
	require.NoError(t, e.BuildVocab(ctx, nil))
	_, err := e.Embed(ctx, "x")
	assert.Error(t, err)
	_, err = e.EmbedBatch(ctx, []string{"x"})
	assert.Error(t, err)

	e = newOllamaEmbedder(&fakeLangchain{vec: []float32{1}, short: true}, "m")
	require.NoError(t, e.BuildVocab(ctx, nil))
	_, err = e.EmbedBatch(ctx, []string{"a", "b"})
	assert.Error(t, err)

	_, err = NewOllamaEmbedder(OllamaOptions{})
	assert.Error(t, err)
}
