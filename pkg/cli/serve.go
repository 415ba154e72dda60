package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/cli/config"
	httpctrl "github.com/secmon-lab/augur/pkg/controller/http"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/service/classifier"
	"github.com/secmon-lab/augur/pkg/service/embedding"
	"github.com/secmon-lab/augur/pkg/usecase"
	"github.com/secmon-lab/augur/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var corpusCfg config.Corpus
	var llmCfg config.LLM
	var routerCfg config.Router
	var catalogCfg config.IntentCatalog

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("AUGUR_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, corpusCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, routerCfg.Flags()...)
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the intent routing HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
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

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"corpus", corpusCfg,
					"llm", llmCfg,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
