package services

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/providers"
	"github.com/pricegauge/laborrates/internal/domain/repositories"
	"github.com/pricegauge/laborrates/internal/infrastructure/observability"
	apperrors "github.com/pricegauge/laborrates/pkg/errors"
)

// CacheFactory builds the per-batch memoization cache. A fresh cache is
// created when a batch starts and discarded with it; the factory keeps the
// application layer free of a concrete cache adapter.
type CacheFactory func() providers.CacheProvider

// BatchAnalysisService analyzes a batch of proposed rates. Rows are
// independent, so they run concurrently on a worker pool; all workers share
// one memoization cache because its entire purpose is cross-row reuse
// within the batch.
type BatchAnalysisService struct {
	repo         repositories.RateRepository
	broadener    *BroadeningService
	newCache     CacheFactory
	poolSize     int
	analysisOpts []AnalysisOption
}

// BatchOption configures a BatchAnalysisService
type BatchOption func(*BatchAnalysisService)

// WithPoolSize sets the worker pool size. Default is runtime.NumCPU().
func WithPoolSize(size int) BatchOption {
	return func(s *BatchAnalysisService) {
		if size > 0 {
			s.poolSize = size
		}
	}
}

// WithAnalysisOptions forwards options to the per-batch analysis service
func WithAnalysisOptions(opts ...AnalysisOption) BatchOption {
	return func(s *BatchAnalysisService) {
		s.analysisOpts = opts
	}
}

// NewBatchAnalysisService creates a new batch analysis service
func NewBatchAnalysisService(
	repo repositories.RateRepository,
	broadener *BroadeningService,
	newCache CacheFactory,
	opts ...BatchOption,
) *BatchAnalysisService {
	s := &BatchAnalysisService{
		repo:      repo,
		broadener: broadener,
		newCache:  newCache,
		poolSize:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeBatch analyzes every row and returns one result per row in input
// order. All rows are validated up front; external store failures abort the
// batch and propagate unmodified.
func (s *BatchAnalysisService) AnalyzeBatch(ctx context.Context, rows []*entities.ProposedRate, minCount int) ([]*AnalyzedRate, error) {
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create worker pool", err)
	}
	defer pool.Release()

	analysis := NewRateAnalysisService(s.repo, s.broadener, s.newCache(), s.analysisOpts...)

	results := make([]*AnalyzedRate, len(rows))
	errs := make([]error, len(rows))
	var wg sync.WaitGroup

	for i, row := range rows {
		i, row := i, row
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			result, err := analysis.Describe(ctx, row, minCount)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = &AnalyzedRate{Row: row, Result: result}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = apperrors.NewInternalError("failed to submit analysis task", submitErr)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	logger := observability.LoggerFromContext(ctx)
	logger.Info().Int("rows", len(rows)).Msg("batch analysis complete")

	return results, nil
}
