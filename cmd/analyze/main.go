package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/pricegauge/laborrates/internal/adapters/cache"
	"github.com/pricegauge/laborrates/internal/adapters/database"
	"github.com/pricegauge/laborrates/internal/adapters/nlp"
	"github.com/pricegauge/laborrates/internal/application/services"
	"github.com/pricegauge/laborrates/internal/domain/entities"
	"github.com/pricegauge/laborrates/internal/domain/providers"
	"github.com/pricegauge/laborrates/internal/domain/repositories"
	"github.com/pricegauge/laborrates/internal/infrastructure/clients/postgres"
	redisclient "github.com/pricegauge/laborrates/internal/infrastructure/clients/redis"
	"github.com/pricegauge/laborrates/internal/infrastructure/observability"
	"github.com/pricegauge/laborrates/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "analyze",
		Usage: "Analyze proposed labor rates against the historical corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "CSV of proposed rates (labor_category,min_years_experience,education_level,price)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output CSV path (defaults to stdout)",
			},
			&cli.IntFlag{
				Name:  "min-count",
				Usage: "Minimum comparable-set size (0 uses the configured default)",
			},
			&cli.BoolFlag{
				Name:  "pos-filter",
				Usage: "Enable the part-of-speech noun filter on broadened phrases",
			},
			&cli.BoolFlag{
				Name:  "no-redis",
				Usage: "Skip the Redis search cache even when configured",
			},
		},
		Action: analyzeCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}

func analyzeCommand(c *cli.Context) error {
	observability.InitLogger("laborrates-analyze", os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	var repo repositories.RateRepository = database.NewRateAdapter(pgClient)
	if !c.Bool("no-redis") {
		if redisClient, err := redisclient.NewClient(&cfg.Redis); err == nil {
			defer redisClient.Close()
			repo = database.NewCachedRateAdapter(repo, cache.NewRedisAdapter(redisClient))
		} else {
			log.Warn().Err(err).Msg("Redis unavailable, running without search cache")
		}
	}

	ctx := context.Background()

	vocabulary, err := services.NewVocabularyService(repo).BuildFromIndex(ctx, cfg.Analysis.MinDocumentFrequency)
	if err != nil {
		return err
	}

	broadenerOpts := []services.BroadeningOption{}
	if c.Bool("pos-filter") {
		broadenerOpts = append(broadenerOpts, services.WithPartOfSpeechTagger(nlp.NewProseTagger()))
	}
	broadener := services.NewBroadeningService(vocabulary, nlp.NewSnowballNormalizer(), broadenerOpts...)

	rows, err := readProposedRates(c.String("input"))
	if err != nil {
		return err
	}

	batch := services.NewBatchAnalysisService(
		repo,
		broadener,
		func() providers.CacheProvider { return cache.NewMemoryAdapter() },
		services.WithPoolSize(cfg.Analysis.PoolSize),
		services.WithAnalysisOptions(
			services.WithSeverityStdDevs(cfg.Analysis.SeverityStdDevs),
			services.WithMinCooccurrence(cfg.Analysis.MinCooccurrence),
		),
	)

	minCount := c.Int("min-count")
	if minCount <= 0 {
		minCount = cfg.Analysis.MinComparables
	}

	analyzed, err := batch.AnalyzeBatch(ctx, rows, minCount)
	if err != nil {
		return err
	}

	return writeExport(c.String("output"), services.NewExportService().Export(analyzed))
}

func readProposedRates(path string) ([]*entities.ProposedRate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse input CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("input CSV has no data rows")
	}

	// First row is the header.
	rows := make([]*entities.ProposedRate, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 4 {
			return nil, fmt.Errorf("row %d: expected 4 columns, got %d", i+2, len(record))
		}

		experience, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid experience %q", i+2, record[1])
		}
		education, err := entities.ParseEducationLevel(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price %q", i+2, record[3])
		}

		rows = append(rows, &entities.ProposedRate{
			LaborCategory:      record[0],
			MinYearsExperience: experience,
			EducationLevel:     education,
			Price:              price,
		})
	}
	return rows, nil
}

func writeExport(path string, rows [][]string) error {
	out := os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(services.ExportHeader); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
