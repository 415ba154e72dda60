package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/cli/config"
	"github.com/secmon-lab/augur/pkg/service/classifier"
	"github.com/secmon-lab/augur/pkg/service/embedding"
	"github.com/secmon-lab/augur/pkg/usecase"
	"github.com/secmon-lab/augur/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdBootstrap() *cli.Command {
	var generateCount int
	var delay time.Duration
	var corpusCfg config.Corpus
	var llmCfg config.LLM
	var catalogCfg config.IntentCatalog

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "generate-count",
			Usage:       "Number of paraphrases to generate per intent",
			Value:       10,
			Sources:     cli.EnvVars("AUGUR_GENERATE_COUNT"),
			Destination: &generateCount,
		},
		&cli.DurationFlag{
			Name:        "embed-delay",
			Usage:       "Pause between consecutive embedding calls",
			Value:       500 * time.Millisecond,
			Sources:     cli.EnvVars("AUGUR_EMBED_DELAY"),
			Destination: &delay,
		},
	}
	flags = append(flags, corpusCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:    "bootstrap",
		Aliases: []string{"b"},
		Usage:   "Expand the intent catalog into the initial example corpus",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			catalog, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load intent catalog")
			}

			repo, err := corpusCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize corpus store")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close corpus store", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			embedder, err := embedding.New(llmClient, corpusCfg.EmbeddingModel(), corpusCfg.EmbeddingDimension())
			if err != nil {
				return goerr.Wrap(err, "failed to create embedding service")
			}
			cls, err := classifier.New(llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to create classifier service")
			}

			uc := usecase.New(repo, embedder, cls, nil,
				usecase.WithGenerateCount(generateCount),
				usecase.WithBootstrapDelay(delay),
			)

			result, err := uc.Bootstrap.Bootstrap(ctx, catalog.Definitions())
			if err != nil {
				return goerr.Wrap(err, "bootstrap failed")
			}

			logging.Default().Info("Bootstrap finished",
				"intents", result.Intents,
				"seed_examples", result.SeedExamples,
				"generated_examples", result.GeneratedExamples,
				"failed_generations", result.FailedGenerations,
				"skipped_examples", result.SkippedExamples,
				"added_records", result.AddedRecords,
			)
			return nil
		},
	}
}
