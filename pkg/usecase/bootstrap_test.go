package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/repository/memory"
	"github.com/secmon-lab/augur/pkg/usecase"
)

var testCatalog = []model.IntentDefinition{
	{
		Label:       "greeting",
		Description: "The user greets the bot",
		Examples:    []string{"hello", "good morning"},
	},
	{
		Label:       "get_summary",
		Description: "The user asks for a summary of a shared article",
		Examples:    []string{"summarize this"},
	},
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("expands the catalog into a corpus", func(t *testing.T) {
		repo := memory.New("test-embedding", 3)
		cls := newMockClassifier()
		cls.generateFn = func(ctx context.Context, def model.IntentDefinition, count int) ([]string, error) {
			return []string{"variant one for " + def.Label.String(), "variant two for " + def.Label.String()}, nil
		}
		uc := usecase.New(repo, &mockEmbedder{}, cls, nil, usecase.WithBootstrapDelay(0))

		result, err := uc.Bootstrap.Bootstrap(ctx, testCatalog)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Intents).Equal(2)
		gt.Value(t, result.SeedExamples).Equal(3)
		gt.Value(t, result.GeneratedExamples).Equal(4)
		gt.Value(t, result.AddedRecords).Equal(7)

		corpus, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, corpus.Records).Length(7)
	})

	t.Run("generation failure degrades to seed examples", func(t *testing.T) {
		repo := memory.New("test-embedding", 3)
		cls := newMockClassifier()
		cls.generateFn = func(ctx context.Context, def model.IntentDefinition, count int) ([]string, error) {
			return nil, goerr.New("response is not a JSON array")
		}
		uc := usecase.New(repo, &mockEmbedder{}, cls, nil, usecase.WithBootstrapDelay(0))

		result, err := uc.Bootstrap.Bootstrap(ctx, testCatalog)
		gt.NoError(t, err).Required()
		gt.Value(t, result.FailedGenerations).Equal(2)
		gt.Value(t, result.GeneratedExamples).Equal(0)
		gt.Value(t, result.AddedRecords).Equal(3)

		corpus, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, corpus.Records).Length(3)
	})

	t.Run("embedding failure skips that example only", func(t *testing.T) {
		repo := memory.New("test-embedding", 3)
		embedder := &mockEmbedder{
			embedFn: func(ctx context.Context, text string) (model.Embedding, error) {
				if text == "hello" {
					return nil, goerr.New("quota exceeded")
				}
				return model.Embedding{1, 0, 0}, nil
			},
		}
		cls := newMockClassifier()
		uc := usecase.New(repo, embedder, cls, nil, usecase.WithBootstrapDelay(0))

		result, err := uc.Bootstrap.Bootstrap(ctx, testCatalog)
		gt.NoError(t, err).Required()
		gt.Value(t, result.SkippedExamples).Equal(1)
		gt.Value(t, result.AddedRecords).Equal(2)
	})

	t.Run("rejects an empty catalog", func(t *testing.T) {
		repo := memory.New("test-embedding", 3)
		uc := usecase.New(repo, &mockEmbedder{}, newMockClassifier(), nil, usecase.WithBootstrapDelay(0))

		_, err := uc.Bootstrap.Bootstrap(ctx, nil)
		gt.Error(t, err)
	})

	t.Run("rejects an invalid definition", func(t *testing.T) {
		repo := memory.New("test-embedding", 3)
		uc := usecase.New(repo, &mockEmbedder{}, newMockClassifier(), nil, usecase.WithBootstrapDelay(0))

		_, err := uc.Bootstrap.Bootstrap(ctx, []model.IntentDefinition{
			{Label: "none", Description: "reserved", Examples: []string{"x"}},
		})
		gt.Error(t, err)
	})

	t.Run("rerunning bootstrap adds nothing new", func(t *testing.T) {
		repo := memory.New("test-embedding", 3)
		cls := newMockClassifier()
		cls.generateFn = func(ctx context.Context, def model.IntentDefinition, count int) ([]string, error) {
			return []string{"variant for " + def.Label.String()}, nil
		}
		uc := usecase.New(repo, &mockEmbedder{}, cls, nil, usecase.WithBootstrapDelay(0))

		first, err := uc.Bootstrap.Bootstrap(ctx, testCatalog)
		gt.NoError(t, err).Required()
		gt.Value(t, first.AddedRecords).Equal(5)

		second, err := uc.Bootstrap.Bootstrap(ctx, testCatalog)
		gt.NoError(t, err).Required()
		gt.Value(t, second.AddedRecords).Equal(0)
	})
}
