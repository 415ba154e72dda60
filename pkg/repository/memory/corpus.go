package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
)

// Repository is an in-memory corpus store for development and tests.
// Nothing survives a restart.
type Repository struct {
	mu        sync.RWMutex
	modelName string
	dimension int
	corpus    *model.IntentCorpus
	ids       map[model.ExampleID]struct{}
}

var _ interfaces.CorpusRepository = &Repository{}

// New creates an in-memory corpus repository bound to an embedding model.
func New(modelName string, dimension int) *Repository {
	return &Repository{
		modelName: modelName,
		dimension: dimension,
		ids:       make(map[model.ExampleID]struct{}),
	}
}

func (r *Repository) Load(ctx context.Context) (*model.IntentCorpus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.corpus == nil {
		return nil, nil
	}

	// Records are immutable; only the container needs copying.
	loaded := *r.corpus
	loaded.Records = make([]*model.ExampleRecord, len(r.corpus.Records))
	copy(loaded.Records, r.corpus.Records)
	return &loaded, nil
}

func (r *Repository) Append(ctx context.Context, records ...*model.ExampleRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.corpus == nil {
		r.corpus = model.NewIntentCorpus(r.modelName, r.dimension)
	}

	added := 0
	for _, rec := range records {
		if _, exists := r.ids[rec.ID]; exists {
			continue
		}
		r.ids[rec.ID] = struct{}{}
		r.corpus.Records = append(r.corpus.Records, rec)
		added++
	}

	return added, nil
}

func (r *Repository) Close() error {
	return nil
}
