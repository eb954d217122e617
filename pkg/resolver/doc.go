// Package resolver maps an answer span onto the sentence that contains it.
//
// Sentence tokenisation throws away the whitespace between sentences, so the
// offset scan rebuilds the original layout by assuming exactly one separator
// character after every sentence. The mapping is an approximation: passages
// with double spaces or newlines between sentences drift by one character per
// extra separator. Offsets and lengths are counted in characters (runes), the
// unit SQuAD uses for answer_start.
package resolver
