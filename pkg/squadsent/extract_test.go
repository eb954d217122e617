package squadsent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perbu/squadsent/pkg/loader"
	"github.com/perbu/squadsent/pkg/resolver"
	"github.com/perbu/squadsent/pkg/tokenizer"
)

func testDataset() *loader.Dataset {
	return &loader.Dataset{
		Version: "v2.0",
		Data: []loader.Topic{
			{
				Title: "Greek_letters",
				Paragraphs: []loader.Paragraph{{
					Context: "Alpha is first. Beta is second. Gamma is third.",
					QAs: []loader.QA{
						{ID: "q1", Question: "What is first?", Answers: []loader.Answer{{Text: "Alpha", AnswerStart: 0}}},
						{ID: "q2", Question: "What is second?", Answers: []loader.Answer{
							{Text: "Beta", AnswerStart: 16},
							{Text: "Gamma", AnswerStart: 32},
						}},
						{ID: "q3", Question: "What is fourth?", IsImpossible: true},
						{ID: "q4", Question: "What is third?", Answers: []loader.Answer{{Text: "Gamma", AnswerStart: 32}}},
						{ID: "q5", Question: "Where is the end?", Answers: []loader.Answer{{Text: "third", AnswerStart: 999}}},
					},
				}},
			},
			{
				Title: "Pets",
				Paragraphs: []loader.Paragraph{
					{
						Context: "The cat sat. The dog ran.",
						QAs: []loader.QA{
							{ID: "p1", Question: "Who ran?", Answers: []loader.Answer{{Text: "dog", AnswerStart: 0}}},
							{ID: "p2", Question: "Who slept?"},
						},
					},
					{Context: "", QAs: []loader.QA{
						{ID: "e1", Question: "Anything?", Answers: []loader.Answer{{Text: "x", AnswerStart: 0}}},
					}},
				},
			},
		},
	}
}

func TestExtract(t *testing.T) {
	passages, stats := Extract(testDataset(), tokenizer.NewRegexp(), ExtractOptions{})

	require.Len(t, passages, 3)
	assert.Equal(t, ExtractStats{Passages: 3, Questions: 6, Impossible: 1, NoAnswer: 1, Unresolved: 2}, stats)

	greek := passages[0]
	assert.Equal(t, "Greek_letters", greek.Title)
	assert.Equal(t, []string{"Alpha is first.", "Beta is second.", "Gamma is third."}, greek.Sentences)
	require.Len(t, greek.Samples, 4)

	targets := make([]int, len(greek.Samples))
	for i, s := range greek.Samples {
		targets[i] = s.Target
	}
	assert.Equal(t, []int{0, 1, 2, resolver.NoTarget}, targets)

	// only the first answer candidate is consumed
	assert.Equal(t, "Beta", greek.Samples[1].Answer)
	assert.Equal(t, 16, greek.Samples[1].Offset)
	assert.False(t, greek.Samples[3].HasTarget())

	// zero offset is a real position by default
	assert.Equal(t, 0, passages[1].Samples[0].Target)

	// empty context yields no sentences and no target
	assert.Empty(t, passages[2].Sentences)
	assert.Equal(t, resolver.NoTarget, passages[2].Samples[0].Target)
}

func TestExtract_ZeroIsUnknown(t *testing.T) {
	passages, stats := Extract(testDataset(), tokenizer.NewRegexp(), ExtractOptions{ZeroOffset: resolver.ZeroIsUnknown})

	// "dog" found by containment in the second sentence
	assert.Equal(t, 1, passages[1].Samples[0].Target)
	// "Alpha" at offset 0 is found by containment as well
	assert.Equal(t, 0, passages[0].Samples[0].Target)
	assert.Equal(t, 2, stats.Unresolved)
}

func TestColumns(t *testing.T) {
	passages, _ := Extract(testDataset(), tokenizer.NewRegexp(), ExtractOptions{})
	contexts, questions, answers, targets := Columns(passages)

	require.Len(t, contexts, 3)
	for i := range passages {
		assert.Len(t, questions[i], len(answers[i]))
		assert.Len(t, targets[i], len(questions[i]), "targets stay aligned with questions")
	}
	assert.Equal(t, []string{"What is first?", "What is second?", "What is third?", "Where is the end?"}, questions[0])
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma", "third"}, answers[0])
	assert.Equal(t, []int{0, 1, 2, resolver.NoTarget}, targets[0])
}

func TestFlattenAndCorpus(t *testing.T) {
	passages, _ := Extract(testDataset(), tokenizer.NewRegexp(), ExtractOptions{})

	flat := Flatten(passages)
	assert.Equal(t, []string{
		"Alpha is first.", "Beta is second.", "Gamma is third.",
		"The cat sat.", "The dog ran.",
	}, flat)

	corpus := Corpus(passages)
	assert.Len(t, corpus, len(flat)+2*6)
	assert.Equal(t, flat, corpus[:len(flat)])
	assert.Equal(t, "What is first?", corpus[len(flat)])
	assert.Equal(t, "Alpha", corpus[len(flat)+1])
}
