package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/types"
)

// CorpusVersion is the current persisted corpus document version.
const CorpusVersion = "v1"

// ErrCorpusMismatch indicates a persisted corpus was built with a different
// embedding model or dimension than the one currently configured. Mixing
// vector spaces silently corrupts similarity search, so such a corpus is
// rejected at load time.
var ErrCorpusMismatch = goerr.New("corpus embedding model mismatch")

// ExampleID is a deterministic identifier for an ExampleRecord, derived
// from the intent label and the normalized example text. The same
// (intent, text) pair always maps to the same ID, which is what makes
// corpus appends idempotent across every storage backend.
type ExampleID string

// NormalizeExampleText is the canonical form used for deduplication:
// whitespace-trimmed and lowercased.
func NormalizeExampleText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// NewExampleID derives the deterministic ID for an (intent, text) pair.
func NewExampleID(intent types.IntentLabel, text string) ExampleID {
	key := intent.String() + "\x00" + NormalizeExampleText(text)
	return ExampleID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String())
}

// ExampleRecord is one labeled example utterance with its embedding.
// Records are immutable once created; the corpus only grows by append.
type ExampleRecord struct {
	ID          ExampleID         `json:"id"`
	Intent      types.IntentLabel `json:"intent"`
	Text        string            `json:"text"`
	Embedding   Embedding         `json:"embedding"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// NewExampleRecord builds a record with its deterministic ID and creation
// timestamp filled in.
func NewExampleRecord(intent types.IntentLabel, text string, embedding Embedding) *ExampleRecord {
	return &ExampleRecord{
		ID:          NewExampleID(intent, text),
		Intent:      intent,
		Text:        text,
		Embedding:   embedding,
		GeneratedAt: time.Now().UTC(),
	}
}

// IntentCorpus is the unit of persistence: the full labeled example set
// together with the embedding model identity that produced it.
type IntentCorpus struct {
	Version   string           `json:"version"`
	Model     string           `json:"model"`
	Dimension int              `json:"dimension"`
	CreatedAt time.Time        `json:"created_at"`
	Records   []*ExampleRecord `json:"examples"`
}

// NewIntentCorpus creates an empty corpus bound to an embedding model.
func NewIntentCorpus(modelName string, dimension int) *IntentCorpus {
	return &IntentCorpus{
		Version:   CorpusVersion,
		Model:     modelName,
		Dimension: dimension,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the corpus invariant: every record's embedding length
// equals the declared dimension.
func (c *IntentCorpus) Validate() error {
	if c.Model == "" {
		return goerr.New("corpus embedding model is required")
	}
	if c.Dimension <= 0 {
		return goerr.New("corpus dimension must be positive", goerr.V("dimension", c.Dimension))
	}
	for _, r := range c.Records {
		if len(r.Embedding) != c.Dimension {
			return goerr.New("record embedding length does not match corpus dimension",
				goerr.V("id", r.ID),
				goerr.V("intent", r.Intent),
				goerr.V("len", len(r.Embedding)),
				goerr.V("dimension", c.Dimension))
		}
	}
	return nil
}

// Matches reports whether the corpus was built with the given embedding
// model and dimension.
func (c *IntentCorpus) Matches(modelName string, dimension int) bool {
	return c.Model == modelName && c.Dimension == dimension
}
