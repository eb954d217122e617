package resolver

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// NoTarget marks a question whose answer could not be mapped to a sentence
const NoTarget = -1

// Mode selects how an answer is located within a passage
type Mode int

const (
	// ByOffset walks the sentences accumulating their length plus one
	// separator until the running total passes the answer offset
	ByOffset Mode = iota
	// ByContainment returns the first sentence containing the answer text
	ByContainment
)

func (m Mode) String() string {
	switch m {
	case ByOffset:
		return "offset"
	case ByContainment:
		return "contains"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Resolve returns the index of the sentence holding the answer.
// The second return value is false (and the index NoTarget) when no sentence matches.
func Resolve(sentences []string, offset int, answer string, mode Mode) (int, bool) {
	switch mode {
	case ByOffset:
		return byOffset(sentences, offset)
	case ByContainment:
		return byContainment(sentences, answer)
	default:
		return NoTarget, false
	}
}

// Boundaries returns the running totals the offset scan compares against,
// one per sentence.
func Boundaries(sentences []string) []int {
	out := make([]int, len(sentences))
	acc := 0
	for i, s := range sentences {
		acc += utf8.RuneCountInString(s) + 1
		out[i] = acc
	}
	return out
}

func byOffset(sentences []string, offset int) (int, bool) {
	if offset < 0 {
		return NoTarget, false
	}
	acc := 0
	for i, s := range sentences {
		// +1 for the separator the tokenizer dropped between sentences
		acc += utf8.RuneCountInString(s) + 1
		if acc > offset {
			return i, true
		}
	}
	return NoTarget, false
}

func byContainment(sentences []string, answer string) (int, bool) {
	if answer == "" {
		return NoTarget, false
	}
	for i, s := range sentences {
		if strings.Contains(s, answer) {
			return i, true
		}
	}
	return NoTarget, false
}
