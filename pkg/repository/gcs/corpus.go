package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/utils/safe"
)

const defaultObjectName = "corpus.json"

// Repository persists the corpus as a single JSON object in a Cloud
// Storage bucket. Appends read the current object, merge, and write it
// back under a mutex, with the previous generation copied to a
// timestamped backup object first.
type Repository struct {
	mu         sync.Mutex
	client     *storage.Client
	bucket     string
	objectName string
	modelName  string
	dimension  int
}

var _ interfaces.CorpusRepository = &Repository{}

type Option func(*Repository)

// WithObjectName overrides the default corpus object name.
func WithObjectName(name string) Option {
	return func(r *Repository) {
		r.objectName = name
	}
}

// New creates a Cloud Storage corpus repository bound to an embedding model.
func New(ctx context.Context, bucket, modelName string, dimension int, opts ...Option) (*Repository, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	r := &Repository{
		client:     client,
		bucket:     bucket,
		objectName: defaultObjectName,
		modelName:  modelName,
		dimension:  dimension,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Repository) object() *storage.ObjectHandle {
	return r.client.Bucket(r.bucket).Object(r.objectName)
}

func (r *Repository) Load(ctx context.Context) (*model.IntentCorpus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// load reads and validates the corpus object. Callers must hold r.mu.
func (r *Repository) load(ctx context.Context) (*model.IntentCorpus, error) {
	reader, err := r.object().NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open corpus object",
			goerr.V("bucket", r.bucket), goerr.V("object", r.objectName))
	}
	defer safe.Close(ctx, reader)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read corpus object",
			goerr.V("bucket", r.bucket), goerr.V("object", r.objectName))
	}

	var corpus model.IntentCorpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, goerr.Wrap(err, "failed to parse corpus object",
			goerr.V("bucket", r.bucket), goerr.V("object", r.objectName))
	}
	if err := corpus.Validate(); err != nil {
		return nil, goerr.Wrap(err, "corpus object validation failed",
			goerr.V("bucket", r.bucket), goerr.V("object", r.objectName))
	}
	if !corpus.Matches(r.modelName, r.dimension) {
		return nil, goerr.Wrap(model.ErrCorpusMismatch, "persisted corpus was built with a different embedding model",
			goerr.V("corpusModel", corpus.Model),
			goerr.V("corpusDimension", corpus.Dimension),
			goerr.V("configuredModel", r.modelName),
			goerr.V("configuredDimension", r.dimension))
	}

	return &corpus, nil
}

func (r *Repository) Append(ctx context.Context, records ...*model.ExampleRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	corpus, err := r.load(ctx)
	if err != nil {
		return 0, err
	}

	existed := corpus != nil
	if corpus == nil {
		corpus = model.NewIntentCorpus(r.modelName, r.dimension)
	}

	ids := make(map[model.ExampleID]struct{}, len(corpus.Records))
	for _, rec := range corpus.Records {
		ids[rec.ID] = struct{}{}
	}

	added := 0
	for _, rec := range records {
		if _, exists := ids[rec.ID]; exists {
			continue
		}
		ids[rec.ID] = struct{}{}
		corpus.Records = append(corpus.Records, rec)
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if existed {
		if err := r.backup(ctx); err != nil {
			return 0, err
		}
	}
	if err := r.save(ctx, corpus); err != nil {
		return 0, err
	}
	return added, nil
}

// backup copies the current corpus object to a timestamped sibling.
// Callers must hold r.mu.
func (r *Repository) backup(ctx context.Context) error {
	name := fmt.Sprintf("%s.%s.bak", r.objectName, time.Now().UTC().Format("20060102-150405"))
	dst := r.client.Bucket(r.bucket).Object(name)
	if _, err := dst.CopierFrom(r.object()).Run(ctx); err != nil {
		return goerr.Wrap(err, "failed to back up corpus object",
			goerr.V("bucket", r.bucket), goerr.V("object", name))
	}
	return nil
}

// save writes the full corpus document. Callers must hold r.mu.
func (r *Repository) save(ctx context.Context, corpus *model.IntentCorpus) error {
	data, err := json.Marshal(corpus)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal corpus")
	}

	writer := r.object().NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write corpus object",
			goerr.V("bucket", r.bucket), goerr.V("object", r.objectName))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize corpus object",
			goerr.V("bucket", r.bucket), goerr.V("object", r.objectName))
	}
	return nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}
