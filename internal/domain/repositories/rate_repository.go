package repositories

import (
	"context"

	"github.com/pricegauge/laborrates/internal/domain/entities"
)

// RateRepository is the boundary with the historical corpus store. The
// corpus is read-only; all methods may block on the backing store and honor
// context cancellation. Store failures are propagated unmodified.
type RateRepository interface {
	// SearchByPhrases runs a full-text search over the corpus. Each phrase
	// is an implicit AND of its words with prefix-matching semantics;
	// multiple phrases are unioned (OR of sub-phrase ANDs).
	SearchByPhrases(ctx context.Context, phrases []string) ([]*entities.RateRecord, error)

	// TermDocumentFrequencies returns, for every indexed lexeme appearing in
	// at least minDF records, the number of records containing it.
	TermDocumentFrequencies(ctx context.Context, minDF int) (map[string]int, error)

	// TermVectors returns the lexeme list of every corpus record, used to
	// derive pairwise co-occurrence counts.
	TermVectors(ctx context.Context) ([][]string, error)

	// AggregatePriceStats computes the mean and sample standard deviation of
	// current price over the records matching the given phrases.
	AggregatePriceStats(ctx context.Context, phrases []string) (mean, stddev float64, err error)
}
