package interfaces

import (
	"context"

	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/domain/types"
)

// EmbeddingProvider converts text into a fixed-dimension embedding vector.
type EmbeddingProvider interface {
	// Embed returns the embedding for a single text. It fails on provider
	// errors; it never returns a zero vector silently.
	Embed(ctx context.Context, text string) (model.Embedding, error)

	// ModelName identifies the embedding model, used to bind a corpus to
	// one vector space.
	ModelName() string

	// Dimension is the fixed vector length produced by the model.
	Dimension() int
}

// LabelClassifier answers label selection questions and generates
// paraphrased training examples through a generative model.
type LabelClassifier interface {
	// Classify picks one label for the text out of the candidate set, or
	// types.IntentNone when no candidate fits. An answer outside the
	// candidate set is reported as none, not as an error.
	Classify(ctx context.Context, text string, candidates []types.IntentLabel) (types.IntentLabel, error)

	// GenerateExamples produces paraphrased variations of an intent's seed
	// examples for corpus bootstrap.
	GenerateExamples(ctx context.Context, def model.IntentDefinition, count int) ([]string, error)
}
