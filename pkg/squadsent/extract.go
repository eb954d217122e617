package squadsent

import (
	"github.com/rs/zerolog/log"

	"github.com/perbu/squadsent/pkg/loader"
	"github.com/perbu/squadsent/pkg/resolver"
	"github.com/perbu/squadsent/pkg/tokenizer"
)

// ExtractOptions controls answer resolution during Extract
type ExtractOptions struct {
	ZeroOffset resolver.ZeroOffsetPolicy
}

// ExtractStats counts what Extract kept and skipped
type ExtractStats struct {
	Passages   int
	Questions  int // answerable questions kept
	Impossible int // skipped, flagged unanswerable
	NoAnswer   int // skipped, answerable but without candidates
	Unresolved int // kept with Target == resolver.NoTarget
}

// Extract splits every paragraph into sentences and resolves the target
// sentence of each answerable question. Unresolved questions are kept with
// a NoTarget marker so questions, answers and targets stay aligned.
func Extract(ds *loader.Dataset, tok tokenizer.SentenceTokenizer, opts ExtractOptions) ([]Passage, ExtractStats) {
	var passages []Passage
	var stats ExtractStats

	for _, topic := range ds.Data {
		for _, paragraph := range topic.Paragraphs {
			p := Passage{
				Title:     topic.Title,
				Context:   paragraph.Context,
				Sentences: tok.Sentences(paragraph.Context),
			}

			for _, qa := range paragraph.QAs {
				if qa.IsImpossible {
					stats.Impossible++
					continue
				}
				if len(qa.Answers) == 0 {
					log.Warn().Str("id", qa.ID).Str("title", topic.Title).Msg("answerable question without answers, skipping")
					stats.NoAnswer++
					continue
				}

				// only the first candidate is used
				ans := qa.Answers[0]
				target, ok := resolver.ResolveAnswer(p.Sentences, ans.AnswerStart, ans.Text, opts.ZeroOffset)
				if !ok {
					log.Debug().
						Str("id", qa.ID).
						Int("offset", ans.AnswerStart).
						Ints("boundaries", resolver.Boundaries(p.Sentences)).
						Msg("answer not mapped to a sentence")
					stats.Unresolved++
				}

				p.Samples = append(p.Samples, Sample{
					ID:       qa.ID,
					Question: qa.Question,
					Answer:   ans.Text,
					Offset:   ans.AnswerStart,
					Target:   target,
				})
				stats.Questions++
			}

			passages = append(passages, p)
		}
	}
	stats.Passages = len(passages)
	return passages, stats
}

// Columns returns the parallel per-passage lists: sentences, questions,
// answers and targets.
func Columns(passages []Passage) (contexts, questions, answers [][]string, targets [][]int) {
	contexts = make([][]string, len(passages))
	questions = make([][]string, len(passages))
	answers = make([][]string, len(passages))
	targets = make([][]int, len(passages))
	for i, p := range passages {
		contexts[i] = p.Sentences
		questions[i] = make([]string, len(p.Samples))
		answers[i] = make([]string, len(p.Samples))
		targets[i] = make([]int, len(p.Samples))
		for j, s := range p.Samples {
			questions[i][j] = s.Question
			answers[i][j] = s.Answer
			targets[i][j] = s.Target
		}
	}
	return contexts, questions, answers, targets
}

// Flatten returns every sentence of every passage in order
func Flatten(passages []Passage) []string {
	var out []string
	for _, p := range passages {
		out = append(out, p.Sentences...)
	}
	return out
}

// Corpus returns the texts the encoder vocabulary is built from:
// all sentences followed by all questions and answers.
func Corpus(passages []Passage) []string {
	out := Flatten(passages)
	for _, p := range passages {
		for _, s := range p.Samples {
			out = append(out, s.Question, s.Answer)
		}
	}
	return out
}
