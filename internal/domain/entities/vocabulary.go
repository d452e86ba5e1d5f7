package entities

import "strings"

// termPair is an unordered pair of vocabulary terms. The constructor keeps
// the lexicographically smaller term first so lookups are symmetric.
type termPair struct {
	a, b string
}

func newTermPair(a, b string) termPair {
	if b < a {
		a, b = b, a
	}
	return termPair{a: a, b: b}
}

// Vocabulary summarizes term frequency and pairwise co-occurrence over the
// historical corpus of labor-category phrases. It is read-only after
// construction; all queries are O(1) map lookups.
type Vocabulary struct {
	frequencies   map[string]int
	cooccurrences map[termPair]int
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		frequencies:   make(map[string]int),
		cooccurrences: make(map[termPair]int),
	}
}

// BuildVocabularyFromDocuments builds a vocabulary by tokenizing each
// document on whitespace. No minimum-frequency filtering is applied; this
// path is mainly for tests and small corpora.
func BuildVocabularyFromDocuments(documents []string) *Vocabulary {
	v := NewVocabulary()
	for _, doc := range documents {
		v.addDocument(strings.Fields(doc))
	}
	return v
}

// BuildVocabularyFromIndexStats builds a vocabulary from statistics already
// gathered from the corpus full-text index: per-term document frequencies
// (restricted to the caller's minimum document frequency) and per-record
// term vectors.
//
// Policy for sub-threshold terms: co-occurrence pairs are retained only when
// both terms meet the frequency threshold. A term absent from the frequency
// map is never an eligible broadening candidate, so pairs that mention one
// would grow the map without ever affecting a query.
func BuildVocabularyFromIndexStats(frequencies map[string]int, termVectors [][]string) *Vocabulary {
	v := NewVocabulary()
	for term, count := range frequencies {
		v.frequencies[term] = count
	}
	for _, terms := range termVectors {
		retained := make([]string, 0, len(terms))
		for _, term := range terms {
			if _, ok := v.frequencies[term]; ok {
				retained = append(retained, term)
			}
		}
		v.addPairs(retained)
	}
	return v
}

// addDocument increments frequency and co-occurrence counts for one
// document. Repeated terms within a document count once.
func (v *Vocabulary) addDocument(terms []string) {
	unique := uniqueTerms(terms)
	for _, term := range unique {
		v.frequencies[term]++
	}
	v.addPairs(unique)
}

func (v *Vocabulary) addPairs(terms []string) {
	unique := uniqueTerms(terms)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			v.cooccurrences[newTermPair(unique[i], unique[j])]++
		}
	}
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	unique := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		unique = append(unique, term)
	}
	return unique
}

// Frequency returns the number of corpus records containing the term,
// or 0 if the term is absent.
func (v *Vocabulary) Frequency(term string) int {
	return v.frequencies[term]
}

// Cooccurrence returns the number of corpus records containing both terms.
// The result is symmetric in its arguments and 0 for unknown pairs.
func (v *Vocabulary) Cooccurrence(a, b string) int {
	return v.cooccurrences[newTermPair(a, b)]
}

// Contains reports whether the term is a queryable vocabulary entry.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.frequencies[term]
	return ok
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int {
	return len(v.frequencies)
}

// PairCount returns the number of distinct co-occurring term pairs.
func (v *Vocabulary) PairCount() int {
	return len(v.cooccurrences)
}
