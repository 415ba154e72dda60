package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"golang.org/x/sync/singleflight"
)

// Service generates embedding vectors through an LLM client. Concurrent
// requests for the same normalized text are collapsed into a single
// upstream call.
type Service struct {
	llmClient gollem.LLMClient
	modelName string
	dimension int
	group     singleflight.Group
}

// New creates an embedding service bound to a model name and dimension.
func New(llmClient gollem.LLMClient, modelName string, dimension int) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if modelName == "" {
		return nil, goerr.New("embedding model name is required")
	}
	if dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", dimension))
	}

	return &Service{
		llmClient: llmClient,
		modelName: modelName,
		dimension: dimension,
	}, nil
}

func (s *Service) ModelName() string { return s.modelName }
func (s *Service) Dimension() int    { return s.dimension }

// Embed generates the embedding vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) (model.Embedding, error) {
	key := model.NormalizeExampleText(text)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Embedding), nil
}

func (s *Service) generate(ctx context.Context, text string) (model.Embedding, error) {
	embeddings, err := s.llmClient.GenerateEmbedding(ctx, s.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("model", s.modelName))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("no embedding returned", goerr.V("model", s.modelName))
	}

	vec := make(model.Embedding, len(embeddings[0]))
	for i, v := range embeddings[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}
