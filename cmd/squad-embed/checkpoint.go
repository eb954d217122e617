package main

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"slices"

	"github.com/perbu/squadsent/pkg/squadsent"
)

type checkpoint struct {
	Passages    []squadsent.Passage
	Embeddings  []squadsent.PassageEmbedding
	Completed   map[int]bool // Track which passages are done
	ModelInfo   string
	SkipAnswers bool
}

func newCheckpoint(passages []squadsent.Passage, modelInfo string, skipAnswers bool) *checkpoint {
	return &checkpoint{
		Passages:    passages,
		Embeddings:  make([]squadsent.PassageEmbedding, len(passages)),
		Completed:   make(map[int]bool),
		ModelInfo:   modelInfo,
		SkipAnswers: skipAnswers,
	}
}

// matches reports whether cp was produced for the same passages and model.
// Sentences and targets are compared too, so a change of tokenizer or
// zero-offset policy invalidates the checkpoint.
func (cp *checkpoint) matches(passages []squadsent.Passage, modelInfo string, skipAnswers bool) bool {
	if len(cp.Passages) != len(passages) || cp.ModelInfo != modelInfo || cp.SkipAnswers != skipAnswers {
		return false
	}
	for i, p := range passages {
		old := cp.Passages[i]
		if old.Context != p.Context || !slices.Equal(old.Sentences, p.Sentences) || !slices.EqualFunc(old.Samples, p.Samples, sameSample) {
			return false
		}
	}
	return true
}

// sameSample ignores ID, which is generated per load for questions without one
func sameSample(a, b squadsent.Sample) bool {
	return a.Question == b.Question && a.Answer == b.Answer && a.Offset == b.Offset && a.Target == b.Target
}

func (cp *checkpoint) done() int {
	n := 0
	for _, ok := range cp.Completed {
		if ok {
			n++
		}
	}
	return n
}

func loadCheckpoint(path string) (*checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, err
	}
	defer file.Close()

	var cp checkpoint
	if err := gob.NewDecoder(file).Decode(&cp); err != nil {
		return nil, err
	}
	if cp.Completed == nil {
		cp.Completed = make(map[int]bool)
	}
	return &cp, nil
}

func saveCheckpoint(path string, cp *checkpoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(cp); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(path+".tmp", path)
}

func writeOutput(path string, data *squadsent.EmbeddingData) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return 0, err
	}
	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
