package database

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/providers"
	"github.com/pricegauge/laborrates/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	searchResultsTTL   = 300 // 5 minutes for phrase search results
	termFrequenciesTTL = 3600
)

// CachedRateAdapter wraps a RateRepository with caching. Broadening probes
// the same phrases over and over across rows and batches; caching the
// phrase searches keeps that cheap.
type CachedRateAdapter struct {
	adapter repositories.RateRepository
	cache   providers.CacheProvider
}

// NewCachedRateAdapter creates a new cached rate adapter
func NewCachedRateAdapter(adapter repositories.RateRepository, cache providers.CacheProvider) repositories.RateRepository {
	return &CachedRateAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func searchCacheKey(phrases []string) string {
	return "rates:search:" + strings.Join(phrases, "|")
}

// SearchByPhrases retrieves a phrase search result with caching
func (a *CachedRateAdapter) SearchByPhrases(ctx context.Context, phrases []string) ([]*entities.RateRecord, error) {
	cacheKey := searchCacheKey(phrases)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var records []*entities.RateRecord
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
		// If unmarshal fails, continue to fetch from the store
		log.Warn().Str("key", cacheKey).Msg("failed to unmarshal cached search result")
	}

	// Cache miss - fetch from the corpus store
	records, err := a.adapter.SearchByPhrases(ctx, phrases)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the caller
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(records); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, searchResultsTTL); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache search result")
			}
		}
	}()

	return records, nil
}

// TermDocumentFrequencies retrieves term document frequencies with caching.
// The vocabulary is rebuilt rarely, so a longer TTL applies.
func (a *CachedRateAdapter) TermDocumentFrequencies(ctx context.Context, minDF int) (map[string]int, error) {
	cacheKey := "rates:termfreq:" + strconv.Itoa(minDF)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var frequencies map[string]int
		if err := json.Unmarshal(cached, &frequencies); err == nil {
			return frequencies, nil
		}
	}

	frequencies, err := a.adapter.TermDocumentFrequencies(ctx, minDF)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(frequencies); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, termFrequenciesTTL); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache term frequencies")
			}
		}
	}()

	return frequencies, nil
}

// TermVectors passes through uncached; the payload is the whole corpus and
// is consumed once per vocabulary build.
func (a *CachedRateAdapter) TermVectors(ctx context.Context) ([][]string, error) {
	return a.adapter.TermVectors(ctx)
}

// AggregatePriceStats passes through uncached
func (a *CachedRateAdapter) AggregatePriceStats(ctx context.Context, phrases []string) (float64, float64, error) {
	return a.adapter.AggregatePriceStats(ctx, phrases)
}
