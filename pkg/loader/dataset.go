package loader

// Dataset is a SQuAD v1.1 / v2.0 file
type Dataset struct {
	Version string  `json:"version"`
	Data    []Topic `json:"data"`
}

// Topic groups the paragraphs of one article
type Topic struct {
	Title      string      `json:"title"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is a context passage and the questions asked about it
type Paragraph struct {
	Context string `json:"context"`
	QAs     []QA   `json:"qas"`
}

// QA is a single question record
type QA struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	IsImpossible     bool     `json:"is_impossible"`
	Answers          []Answer `json:"answers"`
	PlausibleAnswers []Answer `json:"plausible_answers,omitempty"`
}

// Answer is an answer candidate. AnswerStart is a character offset into the context.
type Answer struct {
	Text        string `json:"text"`
	AnswerStart int    `json:"answer_start"`
}

// Stats summarises the shape of a dataset
type Stats struct {
	Topics     int
	Paragraphs int
	Questions  int
	Impossible int
}

// Stats counts topics, paragraphs and questions
func (d *Dataset) Stats() Stats {
	var s Stats
	s.Topics = len(d.Data)
	for _, topic := range d.Data {
		s.Paragraphs += len(topic.Paragraphs)
		for _, p := range topic.Paragraphs {
			s.Questions += len(p.QAs)
			for _, qa := range p.QAs {
				if qa.IsImpossible {
					s.Impossible++
				}
			}
		}
	}
	return s
}
