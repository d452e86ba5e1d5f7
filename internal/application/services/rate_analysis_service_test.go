package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricegauge/laborrates/internal/adapters/cache"
	"github.com/pricegauge/laborrates/internal/domain/entities"
	apperrors "github.com/pricegauge/laborrates/pkg/errors"
)

// scenarioService wires an analysis service over a tiny two-record corpus.
// The vocabulary mirrors the index's view of it: lowercased lexemes with the
// index's own stop words (like "of") already dropped.
func scenarioService() (*RateAnalysisService, *fakeRateRepository) {
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
	service := NewRateAnalysisService(repo, broadener, cache.NewMemoryAdapter())
	return service, repo
}

func TestDescribe_AcceptsOriginalPhraseWhenLargeEnough(t *testing.T) {
	service, _ := scenarioService()
	row := &entities.ProposedRate{
		LaborCategory:      "Engineer of Doom ZZ",
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              89,
	}

	result, err := service.Describe(context.Background(), row, 1)
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Equal(t, "Engineer of Doom ZZ", result.SearchLaborCategory)
	assert.Equal(t, 1, result.Count)
	assert.InDelta(t, 90.0, result.AvgPrice, 1e-9)
	assert.Zero(t, result.StdDev)
	assert.InDelta(t, 1.0, result.PriceDelta, 1e-9)
	// One comparable gives no dispersion; any divergence is reported severe
	// but sits zero standard deviations out.
	assert.True(t, result.Severe)
	assert.Equal(t, 0, result.StdDevDistance)
	assert.Equal(t, "below", result.Preposition)
	assert.Equal(t, []entities.EducationLevel{entities.EducationBachelors}, result.MostCommonEducation)
	assert.Equal(t, "5-9 years", result.ExperienceCriteria)
	assert.Equal(t, "BA", result.EducationCriteria)
	assert.Equal(t, "Engineer of Doom ZZ", result.DeepLink.Get("q"))
}

func TestDescribe_BroadensUntilEnoughComparables(t *testing.T) {
	service, repo := scenarioService()
	row := &entities.ProposedRate{
		LaborCategory:      "Engineer of Doom ZZ",
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              89,
	}

	result, err := service.Describe(context.Background(), row, 2)
	require.NoError(t, err)
	require.True(t, result.Found)

	// The narrower candidates only ever match one record; "Engineer ZZ" is
	// the first phrase matching both.
	assert.Equal(t, "Engineer ZZ", result.SearchLaborCategory)
	assert.Equal(t, 2, result.Count)
	assert.InDelta(t, 95.0, result.AvgPrice, 1e-9)
	assert.InDelta(t, 7.0710678, result.StdDev, 1e-6)
	assert.InDelta(t, 6.0, result.PriceDelta, 1e-9)
	assert.False(t, result.Severe)
	assert.Equal(t, 1, result.StdDevDistance)
	assert.Equal(t, "below", result.Preposition)
	assert.InDelta(t, 5.0, result.AvgExperience, 1e-9)
	assert.Equal(t, 5, repo.searchCount())
}

func TestDescribe_ZeroDeltaIsNeverSevere(t *testing.T) {
	service, _ := scenarioService()
	row := &entities.ProposedRate{
		LaborCategory:      "Engineer of Doom ZZ",
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              90,
	}

	result, err := service.Describe(context.Background(), row, 1)
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Zero(t, result.StdDev)
	assert.Zero(t, result.PriceDelta)
	assert.False(t, result.Severe)
	assert.Equal(t, 0, result.StdDevDistance)
}

func TestDescribe_NotFoundIsAResultNotAnError(t *testing.T) {
	service, _ := scenarioService()
	row := &entities.ProposedRate{
		LaborCategory:      "Engineer of Doom ZZ",
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              89,
	}

	result, err := service.Describe(context.Background(), row, 3)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, "Engineer of Doom ZZ", result.LaborCategory)
	assert.Zero(t, result.Count)
	assert.Zero(t, result.AvgPrice)
}

func TestDescribe_ValidationFailsBeforeAnySearch(t *testing.T) {
	service, repo := scenarioService()
	row := &entities.ProposedRate{
		LaborCategory:      "  ",
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              89,
	}

	_, err := service.Describe(context.Background(), row, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Zero(t, repo.searchCount())
}

func TestDescribe_ZeroMinCountUsesDefault(t *testing.T) {
	service, _ := scenarioService()
	row := &entities.ProposedRate{
		LaborCategory:      "Engineer of Doom ZZ",
		MinYearsExperience: 5,
		EducationLevel:     entities.EducationBachelors,
		Price:              89,
	}

	// Two records can never satisfy the default minimum of thirty.
	result, err := service.Describe(context.Background(), row, 0)
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestFindComparables_MemoizesFutileSearches(t *testing.T) {
	service, repo := scenarioService()
	ctx := context.Background()

	first, err := service.FindComparables(ctx, "Engineer of Doom ZZ", 5, entities.EducationBachelors, 3)
	require.NoError(t, err)
	assert.Nil(t, first)
	searchesAfterFirst := repo.searchCount()
	assert.Positive(t, searchesAfterFirst)

	// Every (phrase, finder) combination came up short, so the second pass
	// never touches the corpus.
	second, err := service.FindComparables(ctx, "Engineer of Doom ZZ", 5, entities.EducationBachelors, 3)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, searchesAfterFirst, repo.searchCount())
}

func TestFindComparables_MemoKeyedByMinCount(t *testing.T) {
	service, _ := scenarioService()
	ctx := context.Background()

	futile, err := service.FindComparables(ctx, "Engineer of Doom ZZ", 5, entities.EducationBachelors, 3)
	require.NoError(t, err)
	require.Nil(t, futile)

	// A lower threshold is a different question and must not reuse the
	// futility verdicts recorded for the higher one.
	found, err := service.FindComparables(ctx, "Engineer of Doom ZZ", 5, entities.EducationBachelors, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 1, found.Count)
}

func TestFindComparables_SkipsEmptyPhrase(t *testing.T) {
	repo := &fakeRateRepository{}
	broadener := NewBroadeningService(entities.NewVocabulary(), lowercaseNormalizer{})
	service := NewRateAnalysisService(repo, broadener, cache.NewMemoryAdapter())

	// Stop-word-only input broadens to a single empty phrase.
	found, err := service.FindComparables(context.Background(), "II", 5, entities.EducationBachelors, 1)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Zero(t, repo.searchCount())
}

func TestSamplePriceStdDev(t *testing.T) {
	// Sample (n-1) standard deviation, matching the corpus store's
	// STDDEV_SAMP; undefined below two values and reported as 0.
	assert.Zero(t, samplePriceStdDev(nil))
	assert.Zero(t, samplePriceStdDev([]float64{90}))
	assert.InDelta(t, 7.0710678, samplePriceStdDev([]float64{90, 100}), 1e-6)
	assert.InDelta(t, 1.0, samplePriceStdDev([]float64{1, 2, 3}), 1e-9)
	assert.Zero(t, samplePriceStdDev([]float64{50, 50, 50}))
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		name      string
		delta     float64
		stddev    float64
		threshold float64
		severe    bool
		distance  int
	}{
		{"within threshold", 6, 7, 2, false, 1},
		{"at threshold", 14, 7, 2, true, 2},
		{"beyond threshold", 21, 7, 2, true, 3},
		{"zero delta", 0, 7, 2, false, 0},
		{"zero stddev nonzero delta", 1, 0, 2, true, 0},
		{"zero stddev zero delta", 0, 0, 2, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			severe, distance := severity(tt.delta, tt.stddev, tt.threshold)
			assert.Equal(t, tt.severe, severe)
			assert.Equal(t, tt.distance, distance)
		})
	}
}

func TestPreposition(t *testing.T) {
	assert.Equal(t, "above", preposition(0, "above"))
	assert.Equal(t, "above", preposition(1, "above"))
	assert.Equal(t, "way above", preposition(2, "above"))
	assert.Equal(t, "way way below", preposition(3, "below"))
}

func TestMostCommonEducation_KeepsTiesInScaleOrder(t *testing.T) {
	records := []*entities.RateRecord{
		{EducationLevel: entities.EducationMasters},
		{EducationLevel: entities.EducationBachelors},
		{EducationLevel: entities.EducationHighSchool},
		{EducationLevel: entities.EducationMasters},
		{EducationLevel: entities.EducationBachelors},
	}

	levels := mostCommonEducation(records)

	assert.Equal(t, []entities.EducationLevel{entities.EducationBachelors, entities.EducationMasters}, levels)
}
