package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/cli/config"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/service/classifier"
	"github.com/secmon-lab/augur/pkg/service/embedding"
	"github.com/secmon-lab/augur/pkg/usecase"
	"github.com/secmon-lab/augur/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRoute() *cli.Command {
	var corpusCfg config.Corpus
	var llmCfg config.LLM
	var routerCfg config.Router
	var catalogCfg config.IntentCatalog

	var flags []cli.Flag
	flags = append(flags, corpusCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, routerCfg.Flags()...)
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:      "route",
		Aliases:   []string{"r"},
		Usage:     "Classify one text and print the decision",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			text := c.Args().First()
			if text == "" {
				return goerr.New("text argument is required")
			}

			catalog, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load intent catalog")
			}

			policy, err := routerCfg.Configure()
			if err != nil {
				return err
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

			uc := usecase.New(repo, embedder, cls, model.Labels(catalog.Definitions()),
				usecase.WithRouterConfig(policy))

			decision := uc.Router.Route(ctx, text)
			printDecision(decision)
			return nil
		},
	}
}

func printDecision(d model.RoutingDecision) {
	label := color.New(color.FgGreen, color.Bold)
	if d.Intent.IsNone() {
		label = color.New(color.FgYellow, color.Bold)
	}

	fmt.Printf("intent: %s\n", label.Sprint(d.Intent))
	fmt.Printf("score:  %.4f\n", d.Score)
	fmt.Printf("source: %s\n", color.CyanString(string(d.Source)))
}
