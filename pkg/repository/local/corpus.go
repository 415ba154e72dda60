package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
)

// Repository persists the corpus as a single JSON document on the local
// filesystem. Every save rewrites the whole document atomically (temp file
// + rename) and leaves a timestamped backup copy next to it, which keeps
// recovery trivial at the message rates this service handles.
type Repository struct {
	mu        sync.Mutex
	path      string
	modelName string
	dimension int
	corpus    *model.IntentCorpus
	ids       map[model.ExampleID]struct{}
	loaded    bool
}

var _ interfaces.CorpusRepository = &Repository{}

// New creates a file-backed corpus repository at the given path.
func New(path, modelName string, dimension int) *Repository {
	return &Repository{
		path:      path,
		modelName: modelName,
		dimension: dimension,
		ids:       make(map[model.ExampleID]struct{}),
	}
}

func (r *Repository) Load(ctx context.Context) (*model.IntentCorpus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	if r.corpus == nil {
		return nil, nil
	}

	loaded := *r.corpus
	loaded.Records = make([]*model.ExampleRecord, len(r.corpus.Records))
	copy(loaded.Records, r.corpus.Records)
	return &loaded, nil
}

func (r *Repository) Append(ctx context.Context, records ...*model.ExampleRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(); err != nil {
		return 0, err
	}
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

	if added == 0 {
		return 0, nil
	}

	if err := r.save(); err != nil {
		return 0, err
	}
	return added, nil
}

func (r *Repository) Close() error {
	return nil
}

// ensureLoaded reads the document from disk once. Callers must hold r.mu.
func (r *Repository) ensureLoaded() error {
	if r.loaded {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.loaded = true
			return nil
		}
		return goerr.Wrap(err, "failed to read corpus file", goerr.V("path", r.path))
	}

	var corpus model.IntentCorpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return goerr.Wrap(err, "failed to parse corpus file", goerr.V("path", r.path))
	}
	if err := corpus.Validate(); err != nil {
		return goerr.Wrap(err, "corpus file validation failed", goerr.V("path", r.path))
	}
	if !corpus.Matches(r.modelName, r.dimension) {
		return goerr.Wrap(model.ErrCorpusMismatch, "persisted corpus was built with a different embedding model",
			goerr.V("path", r.path),
			goerr.V("corpusModel", corpus.Model),
			goerr.V("corpusDimension", corpus.Dimension),
			goerr.V("configuredModel", r.modelName),
			goerr.V("configuredDimension", r.dimension))
	}

	r.corpus = &corpus
	for _, rec := range corpus.Records {
		r.ids[rec.ID] = struct{}{}
	}
	r.loaded = true
	return nil
}

// save rewrites the document atomically and drops a timestamped backup
// copy. Callers must hold r.mu.
func (r *Repository) save() error {
	data, err := json.MarshalIndent(r.corpus, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal corpus")
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create corpus directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, ".corpus-*.json")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp corpus file", goerr.V("dir", dir))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to write temp corpus file", goerr.V("path", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to close temp corpus file", goerr.V("path", tmpPath))
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to replace corpus file", goerr.V("path", r.path))
	}

	backup := fmt.Sprintf("%s.%s.bak", r.path, time.Now().UTC().Format("20060102-150405"))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write corpus backup", goerr.V("path", backup))
	}

	return nil
}
