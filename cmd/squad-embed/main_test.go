package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/perbu/squadsent/pkg/config"
	"github.com/perbu/squadsent/pkg/embedder"
	"github.com/perbu/squadsent/pkg/squadsent"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Checkpoint = filepath.Join(t.TempDir(), "checkpoint.gob")
	return cfg
}

func TestEncodeRemaining(t *testing.T) {
	cfg := testConfig(t)
	cp := newCheckpoint(testPassages(), "simple-hash-8", false)

	data, err := encodeRemaining(context.Background(), cfg, embedder.NewSimpleEmbedder(8), testPassages(), cp)
	require.NoError(t, err)

	assert.Equal(t, 2, cp.done())
	assert.Equal(t, 8, data.Dimension)
	assert.Equal(t, "simple-hash-8", data.ModelInfo)
	require.Len(t, data.Embeddings, 2)
	assert.Len(t, data.Embeddings[0].Sentences, 2)
	assert.Equal(t, cp.Embeddings, data.Embeddings)
}

func TestEncodeRemaining_Interrupted(t *testing.T) {
	cfg := testConfig(t)
	cp := newCheckpoint(testPassages(), "simple-hash-8", false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := encodeRemaining(ctx, cfg, embedder.NewSimpleEmbedder(8), testPassages(), cp)
	assert.ErrorIs(t, err, errInterrupted)
	assert.Zero(t, cp.done(), "nothing is encoded after cancellation")

	saved, err := loadCheckpoint(cfg.Checkpoint)
	require.NoError(t, err)
	require.NotNil(t, saved, "checkpoint is written on interrupt")
	assert.True(t, saved.matches(testPassages(), "simple-hash-8", false))
}

func TestEncodeRemaining_Resumes(t *testing.T) {
	cfg := testConfig(t)
	cp := newCheckpoint(testPassages(), "simple-hash-8", false)
	stored := squadsent.PassageEmbedding{Sentences: [][]float32{{1}, {0}}}
	cp.Embeddings[0] = stored
	cp.Completed[0] = true

	data, err := encodeRemaining(context.Background(), cfg, embedder.NewSimpleEmbedder(8), testPassages(), cp)
	require.NoError(t, err)
	assert.Equal(t, stored, data.Embeddings[0])
	assert.Len(t, data.Embeddings[1].Sentences, 1)
	assert.Equal(t, 2, cp.done())
}

const sampleDataset = `{"version": "v2.0", "data": [{"title": "Pets", "paragraphs": [{
	"context": "The cat sat. The dog ran.",
	"qas": [{"id": "p1", "question": "Who ran?", "is_impossible": false,
		"answers": [{"text": "dog", "answer_start": 17}]}]
}]}]}`

func TestDryRunSkipsEmbedder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	dataset := filepath.Join(dir, "dev.json")
	require.NoError(t, os.WriteFile(dataset, []byte(sampleDataset), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("tokenizer: regexp\nembedder:\n  provider: openai\n"), 0o644))

	c, err := newContainer(&cliFlags{configPath: cfgPath, dataset: dataset, limit: -1})
	require.NoError(t, err)
	require.NoError(t, c.Invoke(dryRun), "dry run works without an API key")

	err = c.Invoke(run)
	require.Error(t, err)
	assert.ErrorIs(t, dig.RootCause(err), config.ErrInvalid)
}
