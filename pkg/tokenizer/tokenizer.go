package tokenizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/blevesearch/segment"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// ErrUnknown is returned by New for an unsupported tokenizer name
var ErrUnknown = errors.New("unknown sentence tokenizer")

// SentenceTokenizer splits a passage into an ordered list of sentences
type SentenceTokenizer interface {
	Sentences(text string) []string
}

// New returns the tokenizer registered under name ("punkt" or "regexp")
func New(name string) (SentenceTokenizer, error) {
	switch strings.ToLower(name) {
	case "", "punkt":
		return NewPunkt()
	case "regexp":
		return NewRegexp(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// Punkt uses the pretrained English punkt model
type Punkt struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the bundled English punkt parameters
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading punkt model: %w", err)
	}
	return &Punkt{tok: tok}, nil
}

// Sentences returns trimmed, non-empty sentences in passage order
func (p *Punkt) Sentences(text string) []string {
	var out []string
	for _, s := range p.tok.Tokenize(text) {
		t := strings.TrimSpace(s.Text)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// Regexp splits on terminal punctuation. It knows nothing about
// abbreviations, so "Dr. Smith" becomes two sentences.
type Regexp struct {
	re *regexp.Regexp
}

// NewRegexp creates a punctuation based splitter
func NewRegexp() *Regexp {
	return &Regexp{re: sentenceRe}
}

// Sentences returns trimmed, non-empty sentences in passage order
func (r *Regexp) Sentences(text string) []string {
	var out []string
	for _, m := range r.re.FindAllString(text, -1) {
		t := strings.TrimSpace(m)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Words returns the word and number tokens of text, dropping whitespace and punctuation
func Words(text string) []string {
	var words []string
	seg := segment.NewWordSegmenter(strings.NewReader(text))
	for seg.Segment() {
		switch seg.Type() {
		case segment.Letter, segment.Number, segment.Ideo, segment.Kana:
			words = append(words, seg.Text())
		}
	}
	return words
}
