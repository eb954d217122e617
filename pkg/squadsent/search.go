package squadsent

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors
// Returns a value between -1 and 1, where 1 means identical direction
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// RankSentences scores every sentence vector against query.
// Returns top-k results sorted by similarity score (highest first), ties by sentence order.
func RankSentences(sentences [][]float32, query []float32, topK int) []SentenceScore {
	results := make([]SentenceScore, len(sentences))
	for i, s := range sentences {
		results[i] = SentenceScore{Index: i, Score: CosineSimilarity(query, s)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results
}

// Evaluation reports how often the sentence closest to a question is its target
type Evaluation struct {
	Questions int // questions in the embedded passages
	Scored    int // questions with a target
	Correct   int // scored questions whose top sentence is the target
	Accuracy  float64
}

// Evaluate predicts the target of each question as its most similar sentence
func Evaluate(data *EmbeddingData) Evaluation {
	var ev Evaluation
	for i, pe := range data.Embeddings {
		if i >= len(data.Passages) {
			break
		}
		p := data.Passages[i]
		for j, s := range p.Samples {
			ev.Questions++
			if !s.HasTarget() || j >= len(pe.Questions) || len(pe.Sentences) == 0 {
				continue
			}
			ev.Scored++
			top := RankSentences(pe.Sentences, pe.Questions[j], 1)
			if top[0].Index == s.Target {
				ev.Correct++
			}
		}
	}
	if ev.Scored > 0 {
		ev.Accuracy = float64(ev.Correct) / float64(ev.Scored)
	}
	return ev
}
