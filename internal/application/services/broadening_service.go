package services

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/providers"
)

const (
	// maxPermutationLexemes bounds the combinatorial expansion; lexemes
	// beyond the cap are dropped from subset generation
	maxPermutationLexemes = 8

	// minCandidateLength discards trivially short, over-broad candidates
	minCandidateLength = 4

	// maxCandidates truncates the ranked candidate list
	maxCandidates = 8
)

// stopWords are seniority-tier markers ("Engineer II", "Analyst 3") that are
// noise for comparability search: small integers and their Roman-numeral
// spellings.
var stopWords = map[string]struct{}{
	"1": {}, "2": {}, "3": {}, "4": {}, "5": {},
	"6": {}, "7": {}, "8": {}, "9": {},
	"i": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
	"vi": {}, "vii": {}, "viii": {}, "ix": {},
}

func isStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

// BroadeningService generates progressively broader search phrases from a
// labor-category query, guided by the corpus vocabulary.
type BroadeningService struct {
	vocabulary *entities.Vocabulary
	normalizer providers.LexemeNormalizer
	tagger     providers.PartOfSpeechTagger
}

// BroadeningOption configures a BroadeningService
type BroadeningOption func(*BroadeningService)

// WithPartOfSpeechTagger enables the noun filter: broadened candidates whose
// words contain no noun-like word are skipped. Without a tagger every word
// is treated as noun-like and the filter is a no-op.
func WithPartOfSpeechTagger(tagger providers.PartOfSpeechTagger) BroadeningOption {
	return func(s *BroadeningService) {
		s.tagger = tagger
	}
}

// NewBroadeningService creates a new broadening service
func NewBroadeningService(vocabulary *entities.Vocabulary, normalizer providers.LexemeNormalizer, opts ...BroadeningOption) *BroadeningService {
	s := &BroadeningService{
		vocabulary: vocabulary,
		normalizer: normalizer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tagger == nil {
		log.Debug().Msg("no part-of-speech tagger configured, noun filter disabled")
	}
	return s
}

// PhraseSequence is a finite, forward-only sequence of candidate phrases,
// ordered most-specific first. It is not restartable; callers stop consuming
// as soon as a phrase yields a satisfactory result.
type PhraseSequence struct {
	phrases []string
	next    int
}

// Next returns the next candidate phrase. The second return value is false
// once the sequence is exhausted.
func (s *PhraseSequence) Next() (string, bool) {
	if s.next >= len(s.phrases) {
		return "", false
	}
	phrase := s.phrases[s.next]
	s.next++
	return phrase, true
}

// queryWord is a surviving input word with its original position and
// normalized lexeme form.
type queryWord struct {
	surface  string
	position int
	lexeme   string
}

// candidateSubset is one enumerated subset of the capped lexeme set.
type candidateSubset struct {
	words       []queryWord
	specificity int
}

// Broaden produces the candidate phrase sequence for one raw labor-category
// phrase. The stop-word-stripped original phrase is always yielded first,
// even when its terms carry no vocabulary signal; broadening never fails for
// empty or all-stop-word input.
func (s *BroadeningService) Broaden(phrase string, minCooccurrence int) *PhraseSequence {
	var kept []queryWord
	for i, word := range strings.Fields(phrase) {
		if isStopWord(word) {
			continue
		}
		kept = append(kept, queryWord{
			surface:  word,
			position: i,
			lexeme:   s.normalizer.Normalize(word),
		})
	}

	phrases := []string{joinSurface(kept)}

	// Restrict combinatorial expansion to vocabulary lexemes, capped.
	var eligible []queryWord
	for _, w := range kept {
		if !s.vocabulary.Contains(w.lexeme) {
			continue
		}
		eligible = append(eligible, w)
		if len(eligible) == maxPermutationLexemes {
			break
		}
	}

	subsets := s.enumerateSubsets(eligible, minCooccurrence)

	// Rank: larger subsets first; among equal size the rarer, more
	// distinguishing combination wins. Stable sort over the enumeration
	// order keeps the sequence deterministic.
	sort.SliceStable(subsets, func(i, j int) bool {
		if len(subsets[i].words) != len(subsets[j].words) {
			return len(subsets[i].words) > len(subsets[j].words)
		}
		return subsets[i].specificity < subsets[j].specificity
	})
	if len(subsets) > maxCandidates {
		subsets = subsets[:maxCandidates]
	}

	for _, subset := range subsets {
		surfaces := make([]string, len(subset.words))
		for i, w := range subset.words {
			surfaces[i] = w.surface
		}
		if s.tagger != nil && !s.tagger.ContainsNoun(surfaces) {
			continue
		}
		phrases = append(phrases, joinSurface(subset.words))
	}

	return &PhraseSequence{phrases: phrases}
}

// enumerateSubsets walks the non-empty powerset of the eligible lexemes,
// discarding short candidates and subsets whose words never co-occurred
// often enough to be a coherent query.
func (s *BroadeningService) enumerateSubsets(eligible []queryWord, minCooccurrence int) []candidateSubset {
	var subsets []candidateSubset
	for mask := 1; mask < 1<<len(eligible); mask++ {
		var members []queryWord
		for i := range eligible {
			if mask&(1<<i) != 0 {
				members = append(members, eligible[i])
			}
		}

		if joinedLexemeLength(members) < minCandidateLength {
			continue
		}

		specificity, coherent := s.subsetSpecificity(members, minCooccurrence)
		if !coherent {
			continue
		}

		subsets = append(subsets, candidateSubset{words: members, specificity: specificity})
	}
	return subsets
}

// subsetSpecificity returns the minimum pairwise co-occurrence of the subset
// (or the term's own frequency for a single term), and whether every pair
// clears the coherence threshold.
func (s *BroadeningService) subsetSpecificity(members []queryWord, minCooccurrence int) (int, bool) {
	if len(members) == 1 {
		return s.vocabulary.Frequency(members[0].lexeme), true
	}

	minPair := -1
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			count := s.vocabulary.Cooccurrence(members[i].lexeme, members[j].lexeme)
			if count < minCooccurrence {
				return 0, false
			}
			if minPair == -1 || count < minPair {
				minPair = count
			}
		}
	}
	return minPair, true
}

// joinSurface joins surface words in their original input order. Subset
// members are already position-ordered because enumeration walks the
// eligible slice left to right.
func joinSurface(words []queryWord) string {
	surfaces := make([]string, len(words))
	for i, w := range words {
		surfaces[i] = w.surface
	}
	return strings.Join(surfaces, " ")
}

func joinedLexemeLength(words []queryWord) int {
	length := 0
	for i, w := range words {
		if i > 0 {
			length++
		}
		length += len(w.lexeme)
	}
	return length
}
