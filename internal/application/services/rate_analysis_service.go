package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/providers"
	"github.com/pricegauge/laborrates/internal/domain/repositories"
	"github.com/pricegauge/laborrates/internal/infrastructure/observability"
)

// DefaultMinComparables is the minimum comparable-set size accepted when the
// caller does not override it.
const DefaultMinComparables = 30

// DefaultSeverityStdDevs flags a proposed price as severe when it sits at
// least this many standard deviations from the comparable-set mean.
const DefaultSeverityStdDevs = 2.0

// FoundComparables is one accepted (phrase, finder) combination and the
// records it matched.
type FoundComparables struct {
	Phrase  string
	Records []*entities.RateRecord
	Count   int
	Finder  ComparableFinder
}

// AnalysisResult is the verdict for one proposed rate. When Found is false
// every statistical field is zero; that state is propagated all the way to
// export, never raised as an error.
type AnalysisResult struct {
	Found bool

	LaborCategory       string
	SearchLaborCategory string

	Count         int
	AvgPrice      float64
	StdDev        float64
	AvgExperience float64

	PriceDelta     float64
	StdDevDistance int
	Severe         bool
	Preposition    string

	MostCommonEducation []entities.EducationLevel

	ExperienceCriteria string
	EducationCriteria  string
	DeepLink           url.Values
}

// RateAnalysisService drives the broadener and the finder strategies to
// locate one adequately-sized comparable set per proposed rate and package a
// statistical verdict over it.
type RateAnalysisService struct {
	repo            repositories.RateRepository
	broadener       *BroadeningService
	memo            providers.CacheProvider
	severityStdDevs float64
	minCooccurrence int
}

// AnalysisOption configures a RateAnalysisService
type AnalysisOption func(*RateAnalysisService)

// WithSeverityStdDevs overrides the severity threshold
func WithSeverityStdDevs(threshold float64) AnalysisOption {
	return func(s *RateAnalysisService) {
		s.severityStdDevs = threshold
	}
}

// WithMinCooccurrence overrides the broadening coherence threshold
func WithMinCooccurrence(min int) AnalysisOption {
	return func(s *RateAnalysisService) {
		s.minCooccurrence = min
	}
}

// NewRateAnalysisService creates a new analysis service. The memo cache
// holds known-futile search combinations; it should live for exactly one
// batch so rows sharing phrases never re-run a search that already came up
// short.
func NewRateAnalysisService(
	repo repositories.RateRepository,
	broadener *BroadeningService,
	memo providers.CacheProvider,
	opts ...AnalysisOption,
) *RateAnalysisService {
	s := &RateAnalysisService{
		repo:            repo,
		broadener:       broadener,
		memo:            memo,
		severityStdDevs: DefaultSeverityStdDevs,
		minCooccurrence: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// futileKey identifies one (phrase, finder, experience, education, minCount)
// combination. The finder's two description strings are pure functions of
// the finder type and its inputs, so together they pin down the strategy.
func futileKey(phrase string, finder ComparableFinder, minCount int) string {
	return fmt.Sprintf("analysis:futile:%s|%s|%s|%d",
		phrase, finder.DescribeExperience(), finder.DescribeEducation(), minCount)
}

// FindComparables walks candidate phrases outer-loop and finder strategies
// inner-loop, accepting the first combination whose filtered record count
// reaches minCount. Returns nil when no combination in the bounded phrase
// sequence is large enough.
func (s *RateAnalysisService) FindComparables(
	ctx context.Context,
	laborCategory string,
	minExperience int,
	education entities.EducationLevel,
	minCount int,
) (*FoundComparables, error) {
	logger := observability.LoggerFromContext(ctx)
	seq := s.broadener.Broaden(laborCategory, s.minCooccurrence)

	for phrase, ok := seq.Next(); ok; phrase, ok = seq.Next() {
		if strings.TrimSpace(phrase) == "" {
			continue
		}

		finders := DefaultFinders(minExperience, education)

		// Skip the corpus round trip when every finder for this phrase is
		// already known futile.
		var pending []ComparableFinder
		for _, finder := range finders {
			if known, _ := s.memo.Exists(ctx, futileKey(phrase, finder, minCount)); !known {
				pending = append(pending, finder)
			}
		}
		if len(pending) == 0 {
			logger.Debug().Str("phrase", phrase).Msg("all finder combinations memoized futile, skipping search")
			continue
		}

		records, err := s.repo.SearchByPhrases(ctx, []string{phrase})
		if err != nil {
			return nil, err
		}

		for _, finder := range pending {
			filtered := finder.Filter(records)
			if len(filtered) >= minCount {
				logger.Debug().
					Str("phrase", phrase).
					Int("count", len(filtered)).
					Str("experience", finder.DescribeExperience()).
					Str("education", finder.DescribeEducation()).
					Msg("accepted comparable set")
				return &FoundComparables{
					Phrase:  phrase,
					Records: filtered,
					Count:   len(filtered),
					Finder:  finder,
				}, nil
			}
			// Write-once; concurrent idempotent writes are fine.
			_ = s.memo.Set(ctx, futileKey(phrase, finder, minCount), []byte("1"), 0)
		}
	}

	return nil, nil
}

// Describe analyzes one proposed rate and returns its verdict. Input
// validation failures surface before any search; a missing comparable set
// is a terminal state of the result, not an error.
func (s *RateAnalysisService) Describe(ctx context.Context, row *entities.ProposedRate, minCount int) (*AnalysisResult, error) {
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if minCount <= 0 {
		minCount = DefaultMinComparables
	}

	found, err := s.FindComparables(ctx, row.LaborCategory, row.MinYearsExperience, row.EducationLevel, minCount)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return &AnalysisResult{
			Found:         false,
			LaborCategory: row.LaborCategory,
		}, nil
	}

	return s.describeComparables(row, found), nil
}

func (s *RateAnalysisService) describeComparables(row *entities.ProposedRate, found *FoundComparables) *AnalysisResult {
	prices := make([]float64, len(found.Records))
	experienceTotal := 0
	for i, record := range found.Records {
		prices[i] = record.CurrentPrice
		experienceTotal += record.MinYearsExperience
	}

	mean, _ := stats.Mean(prices)
	stddev := samplePriceStdDev(prices)

	delta := math.Abs(row.Price - mean)
	severe, distance := severity(delta, stddev, s.severityStdDevs)

	direction := "above"
	if row.Price < mean {
		direction = "below"
	}

	deepLink := found.Finder.DeepLinkParams()
	deepLink.Set("q", found.Phrase)

	return &AnalysisResult{
		Found:               true,
		LaborCategory:       row.LaborCategory,
		SearchLaborCategory: found.Phrase,
		Count:               found.Count,
		AvgPrice:            mean,
		StdDev:              stddev,
		AvgExperience:       float64(experienceTotal) / float64(len(found.Records)),
		PriceDelta:          delta,
		StdDevDistance:      distance,
		Severe:              severe,
		Preposition:         preposition(distance, direction),
		MostCommonEducation: mostCommonEducation(found.Records),
		ExperienceCriteria:  found.Finder.DescribeExperience(),
		EducationCriteria:   found.Finder.DescribeEducation(),
		DeepLink:            deepLink,
	}
}

// samplePriceStdDev matches the corpus store's STDDEV_SAMP: undefined for
// fewer than two values, reported as 0.
func samplePriceStdDev(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	stddev, err := stats.StandardDeviationSample(prices)
	if err != nil {
		return 0
	}
	return stddev
}

// severity applies the documented zero-stddev policy: a dispersion-free
// comparable set makes any nonzero delta severe (the set offers no scale to
// measure against, so divergence is taken at face value) while the distance
// in standard deviations is reported as 0 rather than dividing by zero.
func severity(delta, stddev, threshold float64) (bool, int) {
	if stddev == 0 {
		return delta > 0, 0
	}
	return delta >= threshold*stddev, int(math.Ceil(delta / stddev))
}

// preposition renders the human-readable divergence phrase: one "way" per
// whole standard deviation beyond the first.
func preposition(distance int, direction string) string {
	ways := distance - 1
	if ways < 0 {
		ways = 0
	}
	return strings.Repeat("way ", ways) + direction
}

// mostCommonEducation returns every education level tied for the highest
// frequency in the comparable set, in ascending scale order.
func mostCommonEducation(records []*entities.RateRecord) []entities.EducationLevel {
	counts := make(map[entities.EducationLevel]int)
	best := 0
	for _, record := range records {
		counts[record.EducationLevel]++
		if counts[record.EducationLevel] > best {
			best = counts[record.EducationLevel]
		}
	}

	var levels []entities.EducationLevel
	for level, count := range counts {
		if count == best {
			levels = append(levels, level)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}
