package services

import (
	"context"

	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/repositories"
	"github.com/pricegauge/laborrates/internal/infrastructure/observability"
)

// VocabularyService builds the corpus vocabulary from the full-text index.
type VocabularyService struct {
	repo repositories.RateRepository
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(repo repositories.RateRepository) *VocabularyService {
	return &VocabularyService{repo: repo}
}

// BuildFromIndex summarizes the corpus index into a vocabulary: term
// document frequencies restricted to minDF, and pairwise co-occurrence
// folded from the per-record term vectors. Built once per batch (or cached
// upstream); the result is read-only.
func (s *VocabularyService) BuildFromIndex(ctx context.Context, minDF int) (*entities.Vocabulary, error) {
	frequencies, err := s.repo.TermDocumentFrequencies(ctx, minDF)
	if err != nil {
		return nil, err
	}

	vectors, err := s.repo.TermVectors(ctx)
	if err != nil {
		return nil, err
	}

	vocabulary := entities.BuildVocabularyFromIndexStats(frequencies, vectors)

	logger := observability.LoggerFromContext(ctx)
	logger.Info().
		Int("terms", vocabulary.Len()).
		Int("pairs", vocabulary.PairCount()).
		Int("min_document_frequency", minDF).
		Msg("vocabulary built from corpus index")

	return vocabulary, nil
}
