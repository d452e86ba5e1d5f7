package nlp

import (
	"strings"

	"github.com/kljensen/snowball/english"

	"github.com/pricegauge/laborrates/internal/domain/providers"
)

// SnowballNormalizer reduces surface words to lexemes with the english
// Snowball stemmer, matching the stemming the corpus index's 'english'
// text-search configuration applies. Query words and indexed lexemes must
// land in the same space or the vocabulary lookups miss.
type SnowballNormalizer struct{}

// NewSnowballNormalizer creates a new snowball lexeme normalizer
func NewSnowballNormalizer() providers.LexemeNormalizer {
	return &SnowballNormalizer{}
}

// Normalize lowercases and stems a single word
func (n *SnowballNormalizer) Normalize(word string) string {
	return english.Stem(strings.ToLower(strings.TrimSpace(word)), false)
}
