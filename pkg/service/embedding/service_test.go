package embedding_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/augur/pkg/service/embedding"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
	calls               int
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, goerr.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.calls++
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	vec := make([]float64, dimension)
	vec[0] = 1
	return [][]float64{vec}, nil
}

func TestNew(t *testing.T) {
	t.Run("requires an LLM client", func(t *testing.T) {
		_, err := embedding.New(nil, "text-embedding-004", 256)
		gt.Error(t, err)
	})

	t.Run("requires a model name", func(t *testing.T) {
		_, err := embedding.New(&mockLLMClient{}, "", 256)
		gt.Error(t, err)
	})

	t.Run("requires a positive dimension", func(t *testing.T) {
		_, err := embedding.New(&mockLLMClient{}, "text-embedding-004", 0)
		gt.Error(t, err)
	})
}

func TestEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a vector of the configured dimension", func(t *testing.T) {
		client := &mockLLMClient{}
		svc, err := embedding.New(client, "text-embedding-004", 4)
		gt.NoError(t, err).Required()

		vec, err := svc.Embed(ctx, "hello")
		gt.NoError(t, err).Required()
		gt.Array(t, vec).Length(4)
		gt.Value(t, vec[0]).Equal(float32(1))
	})

	t.Run("passes the dimension and text upstream", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				gt.Value(t, dimension).Equal(8)
				gt.Array(t, input).Length(1)
				gt.Value(t, input[0]).Equal("good morning")
				return [][]float64{make([]float64, 8)}, nil
			},
		}
		svc, err := embedding.New(client, "text-embedding-004", 8)
		gt.NoError(t, err).Required()

		_, err = svc.Embed(ctx, "good morning")
		gt.NoError(t, err)
	})

	t.Run("empty result is an error", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, nil
			},
		}
		svc, err := embedding.New(client, "text-embedding-004", 4)
		gt.NoError(t, err).Required()

		_, err = svc.Embed(ctx, "hello")
		gt.Error(t, err)
	})

	t.Run("upstream failure is wrapped", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, goerr.New("quota exceeded")
			},
		}
		svc, err := embedding.New(client, "text-embedding-004", 4)
		gt.NoError(t, err).Required()

		_, err = svc.Embed(ctx, "hello")
		gt.Error(t, err)
	})
}
