package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricegauge/laborrates/internal/adapters/cache"
	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/providers"
	apperrors "github.com/pricegauge/laborrates/pkg/errors"
)

func memoryCacheFactory() providers.CacheProvider {
	return cache.NewMemoryAdapter()
}

func batchFixture() (*BatchAnalysisService, *fakeRateRepository) {
	repo := &fakeRateRepository{
		records: []*entities.RateRecord{
			{ID: 1, LaborCategory: "Engineer of Doom ZZ", MinYearsExperience: 5, EducationLevel: entities.EducationBachelors, CurrentPrice: 90},
			{ID: 2, LaborCategory: "Engineer ZZ", MinYearsExperience: 5, EducationLevel: entities.EducationBachelors, CurrentPrice: 100},
		},
	}
	vocab := entities.BuildVocabularyFromDocuments([]string{
		"engineer doom zz",
		"engineer zz",
	})
	broadener := NewBroadeningService(vocab, lowercaseNormalizer{})
	service := NewBatchAnalysisService(repo, broadener, memoryCacheFactory, WithPoolSize(2))
	return service, repo
}

func proposedEngineer(category string, price float64) *entities.ProposedRate {
	return &entities.ProposedRate{
		LaborCategory:      category,
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              price,
	}
}

func TestAnalyzeBatch_OneResultPerRowInOrder(t *testing.T) {
	service, _ := batchFixture()
	rows := []*entities.ProposedRate{
		proposedEngineer("Engineer of Doom ZZ", 89),
		proposedEngineer("Engineer ZZ", 110),
		proposedEngineer("Chief Dreamer", 200),
	}

	results, err := service.AnalyzeBatch(context.Background(), rows, 1)
	require.NoError(t, err)
	require.Len(t, results, len(rows))

	for i, pair := range results {
		require.NotNil(t, pair, "row %d missing from results", i)
		assert.Same(t, rows[i], pair.Row)
	}
	assert.True(t, results[0].Result.Found)
	assert.True(t, results[1].Result.Found)
	// No comparables is a rendered outcome, not a dropped row.
	assert.False(t, results[2].Result.Found)
	assert.Equal(t, "Chief Dreamer", results[2].Result.LaborCategory)
}

func TestAnalyzeBatch_SharesFutilityAcrossRows(t *testing.T) {
	service, repo := batchFixture()

	// Identical rows that can never find three comparables: the first to run
	// memoizes every futile combination, the rest ride the memo.
	rows := []*entities.ProposedRate{
		proposedEngineer("Engineer of Doom ZZ", 89),
		proposedEngineer("Engineer of Doom ZZ", 89),
		proposedEngineer("Engineer of Doom ZZ", 89),
	}

	_, err := service.AnalyzeBatch(context.Background(), rows, 3)
	require.NoError(t, err)

	// Seven searchable phrases per row, so three unmemoized passes would
	// cost 21 searches. Concurrent workers may race a phrase before its
	// futility lands, so the bound is loose rather than exact.
	assert.Less(t, repo.searchCount(), 15)
}

func TestAnalyzeBatch_FreshMemoPerBatch(t *testing.T) {
	service, repo := batchFixture()
	rows := []*entities.ProposedRate{proposedEngineer("Engineer of Doom ZZ", 89)}

	_, err := service.AnalyzeBatch(context.Background(), rows, 3)
	require.NoError(t, err)
	firstBatch := repo.searchCount()

	_, err = service.AnalyzeBatch(context.Background(), rows, 3)
	require.NoError(t, err)

	// The memo dies with its batch; the second batch searches from scratch.
	assert.Equal(t, 2*firstBatch, repo.searchCount())
}

func TestAnalyzeBatch_RejectsInvalidRowBeforeAnalysis(t *testing.T) {
	service, repo := batchFixture()
	rows := []*entities.ProposedRate{
		proposedEngineer("Engineer ZZ", 110),
		proposedEngineer("Engineer ZZ", -1),
	}

	_, err := service.AnalyzeBatch(context.Background(), rows, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Zero(t, repo.searchCount())
}

func TestAnalyzeBatch_EmptyBatch(t *testing.T) {
	service, _ := batchFixture()

	results, err := service.AnalyzeBatch(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
