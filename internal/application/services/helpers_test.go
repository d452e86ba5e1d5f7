package services

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/pricegauge/laborrates/internal/domain/entities"
)

// lowercaseNormalizer stands in for the index normalization in tests:
// lexemes are just lowercased surface words.
type lowercaseNormalizer struct{}

func (lowercaseNormalizer) Normalize(word string) string {
	return strings.ToLower(word)
}

// fakeTagger reports nouns from a fixed set of noun-like words.
type fakeTagger struct {
	nouns map[string]bool
}

func (t *fakeTagger) ContainsNoun(words []string) bool {
	for _, word := range words {
		if t.nouns[strings.ToLower(word)] {
			return true
		}
	}
	return false
}

// fakeRateRepository serves phrase searches from an in-memory corpus with
// the store's semantics: a phrase is an AND of its words, each matching as
// a case-insensitive prefix; multiple phrases are unioned.
type fakeRateRepository struct {
	mu          sync.Mutex
	records     []*entities.RateRecord
	searchCalls []string
}

func (r *fakeRateRepository) SearchByPhrases(_ context.Context, phrases []string) ([]*entities.RateRecord, error) {
	r.mu.Lock()
	r.searchCalls = append(r.searchCalls, strings.Join(phrases, "|"))
	r.mu.Unlock()

	var matched []*entities.RateRecord
	for _, record := range r.records {
		for _, phrase := range phrases {
			if phraseMatches(phrase, record.LaborCategory) {
				matched = append(matched, record)
				break
			}
		}
	}
	return matched, nil
}

func phraseMatches(phrase, category string) bool {
	categoryWords := strings.Fields(strings.ToLower(category))
	for _, queryWord := range strings.Fields(strings.ToLower(phrase)) {
		found := false
		for _, word := range categoryWords {
			if strings.HasPrefix(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *fakeRateRepository) TermDocumentFrequencies(_ context.Context, minDF int) (map[string]int, error) {
	frequencies := make(map[string]int)
	for _, record := range r.records {
		for _, term := range uniqueLower(record.LaborCategory) {
			frequencies[term]++
		}
	}
	for term, count := range frequencies {
		if count < minDF {
			delete(frequencies, term)
		}
	}
	return frequencies, nil
}

func (r *fakeRateRepository) TermVectors(_ context.Context) ([][]string, error) {
	vectors := make([][]string, 0, len(r.records))
	for _, record := range r.records {
		vectors = append(vectors, uniqueLower(record.LaborCategory))
	}
	return vectors, nil
}

func (r *fakeRateRepository) AggregatePriceStats(ctx context.Context, phrases []string) (float64, float64, error) {
	records, _ := r.SearchByPhrases(ctx, phrases)
	if len(records) == 0 {
		return 0, 0, nil
	}
	var sum float64
	for _, record := range records {
		sum += record.CurrentPrice
	}
	mean := sum / float64(len(records))
	if len(records) < 2 {
		return mean, 0, nil
	}
	var squares float64
	for _, record := range records {
		squares += (record.CurrentPrice - mean) * (record.CurrentPrice - mean)
	}
	return mean, math.Sqrt(squares / float64(len(records)-1)), nil
}

func (r *fakeRateRepository) searchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.searchCalls)
}

func uniqueLower(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
	}
	return terms
}
