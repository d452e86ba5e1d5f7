package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/pricegauge/laborrates/internal/adapters/database"
	"github.com/pricegauge/laborrates/internal/application/services"
	"github.com/pricegauge/laborrates/internal/infrastructure/clients/postgres"
	"github.com/pricegauge/laborrates/internal/infrastructure/observability"
	"github.com/pricegauge/laborrates/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "vocab",
		Usage: "Build the corpus vocabulary and report its statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-df",
				Usage: "Minimum document frequency for vocabulary terms (0 uses the configured default)",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Print the N most frequent terms",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "phrase",
				Usage: "Also report corpus price statistics for a search phrase",
			},
		},
		Action: vocabCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("vocabulary build failed")
	}
}

func vocabCommand(c *cli.Context) error {
	observability.InitLogger("laborrates-vocab", os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	minDF := c.Int("min-df")
	if minDF <= 0 {
		minDF = cfg.Analysis.MinDocumentFrequency
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	ctx := context.Background()
	repo := database.NewRateAdapter(pgClient)

	frequencies, err := repo.TermDocumentFrequencies(ctx, minDF)
	if err != nil {
		return err
	}

	vocabulary, err := services.NewVocabularyService(repo).BuildFromIndex(ctx, minDF)
	if err != nil {
		return err
	}

	fmt.Printf("terms: %d\n", vocabulary.Len())
	fmt.Printf("co-occurring pairs: %d\n", vocabulary.PairCount())

	type termFreq struct {
		term string
		freq int
	}
	ranked := make([]termFreq, 0, len(frequencies))
	for term, freq := range frequencies {
		ranked = append(ranked, termFreq{term, freq})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].freq != ranked[j].freq {
			return ranked[i].freq > ranked[j].freq
		}
		return ranked[i].term < ranked[j].term
	})

	top := c.Int("top")
	if top > len(ranked) {
		top = len(ranked)
	}
	for _, tf := range ranked[:top] {
		fmt.Printf("%8d  %s\n", tf.freq, tf.term)
	}

	if phrase := c.String("phrase"); phrase != "" {
		mean, stddev, err := repo.AggregatePriceStats(ctx, []string{phrase})
		if err != nil {
			return err
		}
		fmt.Printf("phrase %q: mean price %.2f, stddev %.2f\n", phrase, mean, stddev)
	}

	return nil
}
