package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexpSentences(t *testing.T) {
	tok := NewRegexp()

	got := tok.Sentences("Alpha is first. Beta is second!  Gamma is third?")
	assert.Equal(t, []string{"Alpha is first.", "Beta is second!", "Gamma is third?"}, got)

	got = tok.Sentences("One sentence. A trailing fragment")
	assert.Equal(t, []string{"One sentence.", "A trailing fragment"}, got)

	assert.Empty(t, tok.Sentences("   "))
}

func TestPunktSentences(t *testing.T) {
	tok, err := NewPunkt()
	require.NoError(t, err)

	got := tok.Sentences("The cat sat on the mat. The dog ran away.")
	require.Len(t, got, 2)
	assert.Equal(t, "The cat sat on the mat.", got[0])
	assert.Equal(t, "The dog ran away.", got[1])

	assert.Empty(t, tok.Sentences(""))
}

func TestNew(t *testing.T) {
	tok, err := New("regexp")
	require.NoError(t, err)
	assert.IsType(t, &Regexp{}, tok)

	tok, err = New("")
	require.NoError(t, err)
	assert.IsType(t, &Punkt{}, tok)

	_, err = New("spacy")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestWords(t *testing.T) {
	got := Words("Beyoncé sold 15 million records, worldwide.")
	assert.Equal(t, []string{"Beyoncé", "sold", "15", "million", "records", "worldwide"}, got)
	assert.Empty(t, Words(" ,.; "))
}
