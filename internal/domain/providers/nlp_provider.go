package providers

// LexemeNormalizer reduces a surface word to the canonical lexeme form used
// by the corpus full-text index, so that query words and indexed lexemes are
// comparable. Implementations must be pure functions of their input.
type LexemeNormalizer interface {
	Normalize(word string) string
}

// PartOfSpeechTagger tags surface words with a coarse part of speech. It is
// an optional capability: callers that receive no tagger treat every word as
// noun-like.
type PartOfSpeechTagger interface {
	// ContainsNoun reports whether any of the given words is noun-like.
	ContainsNoun(words []string) bool
}
