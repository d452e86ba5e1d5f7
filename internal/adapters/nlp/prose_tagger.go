package nlp

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/rs/zerolog/log"

	"github.com/pricegauge/laborrates/internal/domain/providers"
)

// ProseTagger tags words with a coarse part of speech using the prose
// tagger. It is injected into the broadener as an optional capability; when
// tagging fails the words are treated as noun-like so the filter can only
// narrow, never drop, a search.
type ProseTagger struct{}

// NewProseTagger creates a new prose part-of-speech tagger
func NewProseTagger() providers.PartOfSpeechTagger {
	return &ProseTagger{}
}

// ContainsNoun reports whether any of the words is tagged noun-like
func (t *ProseTagger) ContainsNoun(words []string) bool {
	if len(words) == 0 {
		return false
	}

	doc, err := prose.NewDocument(
		strings.Join(words, " "),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		log.Warn().Err(err).Msg("part-of-speech tagging failed, treating words as noun-like")
		return true
	}

	for _, tok := range doc.Tokens() {
		// Penn Treebank noun tags: NN, NNS, NNP, NNPS
		if strings.HasPrefix(tok.Tag, "NN") {
			return true
		}
	}
	return false
}
