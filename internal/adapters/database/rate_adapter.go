package database

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/repositories"
	"github.com/pricegauge/laborrates/internal/infrastructure/clients/postgres"
	apperrors "github.com/pricegauge/laborrates/pkg/errors"
)

// ratesTable is the historical corpus of awarded labor rates. The
// labor_category_tsv column is a tsvector over labor_category using the
// english configuration; one index serves both phrase search and the
// vocabulary statistics so that lexeme spaces agree.
const ratesTable = "historical_rates"

var tsqueryWord = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// RateAdapter implements RateRepository on PostgreSQL full-text search
type RateAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRateAdapter creates a new rate adapter
func NewRateAdapter(client *postgres.Client) repositories.RateRepository {
	return &RateAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// buildTSQuery renders phrases as an OR of sub-phrase AND-of-words, each
// word with prefix-matching semantics, e.g. two phrases become
// "(senior:* & engineer:*) | (engineer:*)".
func buildTSQuery(phrases []string) string {
	var groups []string
	for _, phrase := range phrases {
		var words []string
		for _, word := range strings.Fields(phrase) {
			cleaned := tsqueryWord.ReplaceAllString(word, "")
			if cleaned == "" {
				continue
			}
			words = append(words, cleaned+":*")
		}
		if len(words) == 0 {
			continue
		}
		groups = append(groups, "("+strings.Join(words, " & ")+")")
	}
	return strings.Join(groups, " | ")
}

// SearchByPhrases runs a full-text phrase search over the corpus
func (a *RateAdapter) SearchByPhrases(ctx context.Context, phrases []string) ([]*entities.RateRecord, error) {
	tsquery := buildTSQuery(phrases)
	if tsquery == "" {
		return []*entities.RateRecord{}, nil
	}

	query, args, err := a.db.Select(
		"id", "labor_category", "min_years_experience", "education_level",
		"current_price", "vendor_name", "schedule",
	).From(ratesTable).
		Where(goqu.L("labor_category_tsv @@ to_tsquery('english', ?)", tsquery)).
		Order(goqu.I("current_price").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to search rates by phrase", err)
	}
	defer rows.Close()

	var records []*entities.RateRecord
	for rows.Next() {
		record, err := scanRateRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("error iterating rate records", err)
	}

	return records, nil
}

func scanRateRecord(rows *sql.Rows) (*entities.RateRecord, error) {
	record := &entities.RateRecord{}
	var education string
	var vendorName, schedule sql.NullString

	err := rows.Scan(
		&record.ID,
		&record.LaborCategory,
		&record.MinYearsExperience,
		&education,
		&record.CurrentPrice,
		&vendorName,
		&schedule,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan rate record", err)
	}

	level, err := entities.ParseEducationLevel(education)
	if err != nil {
		return nil, apperrors.NewInternalError("corpus record has unknown education level", err)
	}
	record.EducationLevel = level
	record.VendorName = vendorName.String
	record.Schedule = schedule.String

	return record, nil
}

// TermDocumentFrequencies returns per-lexeme document counts from the
// full-text index, restricted to lexemes appearing in at least minDF records
func (a *RateAdapter) TermDocumentFrequencies(ctx context.Context, minDF int) (map[string]int, error) {
	query, args, err := a.db.Select("word", "ndoc").
		From(goqu.L("ts_stat('SELECT labor_category_tsv FROM historical_rates')")).
		Where(goqu.C("ndoc").Gte(minDF)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build term statistics query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query term statistics", err)
	}
	defer rows.Close()

	frequencies := make(map[string]int)
	for rows.Next() {
		var word string
		var ndoc int
		if err := rows.Scan(&word, &ndoc); err != nil {
			return nil, apperrors.NewInternalError("failed to scan term frequency", err)
		}
		frequencies[word] = ndoc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("error iterating term statistics", err)
	}

	return frequencies, nil
}

// TermVectors returns each corpus record's lexeme list
func (a *RateAdapter) TermVectors(ctx context.Context) ([][]string, error) {
	query, args, err := a.db.Select(
		goqu.L("tsvector_to_array(labor_category_tsv)"),
	).From(ratesTable).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build term vectors query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query term vectors", err)
	}
	defer rows.Close()

	var vectors [][]string
	for rows.Next() {
		var terms []string
		if err := rows.Scan(pq.Array(&terms)); err != nil {
			return nil, apperrors.NewInternalError("failed to scan term vector", err)
		}
		vectors = append(vectors, terms)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("error iterating term vectors", err)
	}

	return vectors, nil
}

// AggregatePriceStats computes mean and sample standard deviation of current
// price over the records matching the phrases. STDDEV_SAMP returns NULL for
// a single row; that is reported as 0.
func (a *RateAdapter) AggregatePriceStats(ctx context.Context, phrases []string) (float64, float64, error) {
	tsquery := buildTSQuery(phrases)
	if tsquery == "" {
		return 0, 0, nil
	}

	query, args, err := a.db.Select(
		goqu.L("AVG(current_price)"),
		goqu.L("STDDEV_SAMP(current_price)"),
	).From(ratesTable).
		Where(goqu.L("labor_category_tsv @@ to_tsquery('english', ?)", tsquery)).
		ToSQL()
	if err != nil {
		return 0, 0, apperrors.NewInternalError("failed to build aggregate query", err)
	}

	var mean, stddev sql.NullFloat64
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&mean, &stddev)
	if err != nil {
		return 0, 0, apperrors.NewExternalError("failed to aggregate price stats", err)
	}

	return mean.Float64, stddev.Float64, nil
}
