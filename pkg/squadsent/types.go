package squadsent

// Sample is one answerable question about a passage
type Sample struct {
	ID       string // Question id from the dataset
	Question string // Question text
	Answer   string // Text of the first answer candidate
	Offset   int    // answer_start, character offset into the context
	Target   int    // Index into Passage.Sentences, resolver.NoTarget if unresolved
}

// HasTarget reports whether the answer was mapped to a sentence
func (s Sample) HasTarget() bool {
	return s.Target >= 0
}

// Passage is a dataset paragraph split into sentences
type Passage struct {
	Title     string   // Title of the topic the paragraph belongs to
	Context   string   // Original paragraph text
	Sentences []string // Tokenized sentences, in order
	Samples   []Sample // Answerable questions, in dataset order
}

// PassageEmbedding holds the vectors for one passage.
// Questions[i] and Answers[i] belong to Passage.Samples[i].
type PassageEmbedding struct {
	Sentences [][]float32
	Questions [][]float32
	Answers   [][]float32 // empty when answers were skipped
}

// EmbeddingData is the artifact written by squad-embed
type EmbeddingData struct {
	Passages   []Passage          // Extracted passages
	Embeddings []PassageEmbedding // Same order and length as Passages
	ModelInfo  string             // Model name/version used
	Dimension  int                // Embedding vector dimension
}

// SentenceScore is a sentence ranked against a query
type SentenceScore struct {
	Index int
	Score float32
}
