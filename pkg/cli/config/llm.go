package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// LLM holds CLI flags for the generative model client used for
// classification, paraphrase generation, and embeddings.
type LLM struct {
	provider        string
	geminiProjectID string
	geminiLocation  string
	openaiAPIKey    string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (gemini or openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("AUGUR_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("AUGUR_GEMINI_PROJECT"),
			Destination: &l.geminiProjectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("AUGUR_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key (required when using openai provider)",
			Sources:     cli.EnvVars("AUGUR_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
	}
}

// LogValue returns log attributes for the LLM configuration
func (l LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", l.provider),
		slog.String("gemini_project", l.geminiProjectID),
		slog.String("gemini_location", l.geminiLocation),
	)
}

// Configure creates the LLM client from the configured flags.
func (l *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch l.provider {
	case "gemini":
		if l.geminiProjectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gemini-project is required when using gemini provider")
		}
		client, err := gemini.New(ctx, l.geminiProjectID, l.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "openai":
		if l.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "openai-api-key is required when using openai provider")
		}
		client, err := openai.New(ctx, l.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "unknown LLM provider", goerr.V("provider", l.provider))
	}
}
