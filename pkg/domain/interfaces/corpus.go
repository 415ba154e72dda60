package interfaces

import (
	"context"

	"github.com/secmon-lab/augur/pkg/domain/model"
)

// CorpusRepository defines the interface for IntentCorpus persistence.
type CorpusRepository interface {
	// Load reads the persisted corpus. It returns (nil, nil) when no corpus
	// has been persisted yet: cold start is a valid, non-error state. A
	// corpus whose declared embedding model or dimension differs from the
	// configured one is rejected with model.ErrCorpusMismatch.
	Load(ctx context.Context) (*model.IntentCorpus, error)

	// Append stores the given records, skipping any whose deterministic ID
	// is already present, and persists synchronously before returning.
	// It returns the number of newly stored records. Safe for concurrent
	// callers; duplicate appends are absorbed by the ID scheme.
	Append(ctx context.Context, records ...*model.ExampleRecord) (int, error)

	// Close releases any underlying resources.
	Close() error
}
