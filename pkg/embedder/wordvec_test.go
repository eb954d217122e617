package embedder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastText layout: header line, then "word v1 v2 v3"
const vectorFile = `6 3
cat 1 0 0
dog 0 1 0
the 0 0 1
sat 0.5 0.5 0
ran 0 0.5 0.5
unused 9 9 9
`

func writeVectors(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if strings.HasSuffix(name, ".gz") {
		f, err := os.Create(path)
		require.NoError(t, err)
		zw := gzip.NewWriter(f)
		_, err = zw.Write([]byte(body))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())
		return path
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWordVectorEmbedder_MaxPooling(t *testing.T) {
	ctx := context.Background()
	e, err := NewWordVectorEmbedder(writeVectors(t, "vec.txt", vectorFile), MaxPooling)
	require.NoError(t, err)

	_, err = e.Embed(ctx, "The cat")
	require.ErrorIs(t, err, ErrVocabNotBuilt)
	assert.Zero(t, e.Dimension())

	require.NoError(t, e.BuildVocab(ctx, []string{"The cat sat.", "The dog ran."}))
	assert.Equal(t, 3, e.Dimension())
	assert.Len(t, e.vectors, 5, "only vocabulary words are kept")

	// "The" is found through the lower-case fallback.
	v, err := e.Embed(ctx, "The cat")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.70710677, 0, 0.70710677}, v, 1e-6)

	v, err = e.Embed(ctx, "zebra")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestWordVectorEmbedder_MeanPooling(t *testing.T) {
	ctx := context.Background()
	e, err := NewWordVectorEmbedder(writeVectors(t, "vec.txt.gz", vectorFile), MeanPooling)
	require.NoError(t, err)
	require.NoError(t, e.BuildVocab(ctx, []string{"cat dog"}))

	v, err := e.Embed(ctx, "cat dog")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.70710677, 0.70710677, 0}, v, 1e-6)

	batch, err := e.EmbedBatch(ctx, []string{"cat", "dog"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 0, 0}, batch[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, batch[1], 1e-6)
}

func TestWordVectorEmbedder_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewWordVectorEmbedder("", MaxPooling)
	assert.Error(t, err)

	e, err := NewWordVectorEmbedder(filepath.Join(t.TempDir(), "missing.vec"), MaxPooling)
	require.NoError(t, err)
	assert.Error(t, e.BuildVocab(ctx, []string{"cat"}))

	e, err = NewWordVectorEmbedder(writeVectors(t, "vec.txt", vectorFile), MaxPooling)
	require.NoError(t, err)
	assert.Error(t, e.BuildVocab(ctx, []string{"zebra"}), "no known words")

	e, err = NewWordVectorEmbedder(writeVectors(t, "bad.txt", "cat 1 x 0\n"), MaxPooling)
	require.NoError(t, err)
	assert.Error(t, e.BuildVocab(ctx, []string{"cat"}))
}

func TestWordVectorEmbedder_SkipsMismatchedDimension(t *testing.T) {
	ctx := context.Background()
	e, err := NewWordVectorEmbedder(writeVectors(t, "vec.txt", "cat 1 0 0\ndog 1 0\n"), MaxPooling)
	require.NoError(t, err)
	require.NoError(t, e.BuildVocab(ctx, []string{"cat dog"}))
	assert.Len(t, e.vectors, 1)
}

func TestParsePooling(t *testing.T) {
	p, err := ParsePooling("")
	require.NoError(t, err)
	assert.Equal(t, MaxPooling, p)

	p, err = ParsePooling("MEAN")
	require.NoError(t, err)
	assert.Equal(t, MeanPooling, p)

	_, err = ParsePooling("sum")
	assert.Error(t, err)
}
