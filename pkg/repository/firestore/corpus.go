package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	corpusCollection   = "intent_corpus"
	corpusMetaDoc      = "meta"
	examplesCollection = "intent_examples"
)

// corpusMeta is the Firestore document describing the corpus identity.
type corpusMeta struct {
	Version   string    `firestore:"version"`
	Model     string    `firestore:"model"`
	Dimension int       `firestore:"dimension"`
	CreatedAt time.Time `firestore:"created_at"`
}

// exampleDoc is the Firestore document representation of model.ExampleRecord.
// Embedding is stored as firestore.Vector32 so the collection stays
// compatible with Firestore vector indexes.
type exampleDoc struct {
	ID          string             `firestore:"id"`
	Intent      string             `firestore:"intent"`
	Text        string             `firestore:"text"`
	Embedding   firestore.Vector32 `firestore:"embedding,omitempty"`
	GeneratedAt time.Time          `firestore:"generated_at"`
}

func toExampleDoc(rec *model.ExampleRecord) *exampleDoc {
	doc := &exampleDoc{
		ID:          string(rec.ID),
		Intent:      rec.Intent.String(),
		Text:        rec.Text,
		GeneratedAt: rec.GeneratedAt,
	}
	if len(rec.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(rec.Embedding)
	}
	return doc
}

func fromExampleDoc(d *exampleDoc) *model.ExampleRecord {
	rec := &model.ExampleRecord{
		ID:          model.ExampleID(d.ID),
		Intent:      types.IntentLabel(d.Intent),
		Text:        d.Text,
		GeneratedAt: d.GeneratedAt,
	}
	if len(d.Embedding) > 0 {
		rec.Embedding = model.Embedding(d.Embedding)
	}
	return rec
}

// Repository is the Firestore-backed corpus store. Example documents are
// keyed by their deterministic ID, so a concurrent duplicate append
// resolves to the same document and the Create call reports it as
// already existing.
type Repository struct {
	client           *firestore.Client
	collectionPrefix string
	modelName        string
	dimension        int
}

var _ interfaces.CorpusRepository = &Repository{}

type Option func(*Repository)

// WithCollectionPrefix prefixes all collection names, which keeps multiple
// deployments apart within one database.
func WithCollectionPrefix(prefix string) Option {
	return func(r *Repository) {
		r.collectionPrefix = prefix
	}
}

// New creates a Firestore corpus repository bound to an embedding model.
func New(ctx context.Context, projectID, databaseID, modelName string, dimension int, opts ...Option) (*Repository, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	r := &Repository{
		client:    client,
		modelName: modelName,
		dimension: dimension,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Repository) metaRef() *firestore.DocumentRef {
	return r.client.Collection(r.collectionPrefix + corpusCollection).Doc(corpusMetaDoc)
}

func (r *Repository) examples() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + examplesCollection)
}

func (r *Repository) Load(ctx context.Context) (*model.IntentCorpus, error) {
	metaSnap, err := r.metaRef().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get corpus meta")
	}

	var meta corpusMeta
	if err := metaSnap.DataTo(&meta); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal corpus meta")
	}

	corpus := &model.IntentCorpus{
		Version:   meta.Version,
		Model:     meta.Model,
		Dimension: meta.Dimension,
		CreatedAt: meta.CreatedAt,
	}
	if !corpus.Matches(r.modelName, r.dimension) {
		return nil, goerr.Wrap(model.ErrCorpusMismatch, "persisted corpus was built with a different embedding model",
			goerr.V("corpusModel", meta.Model),
			goerr.V("corpusDimension", meta.Dimension),
			goerr.V("configuredModel", r.modelName),
			goerr.V("configuredDimension", r.dimension))
	}

	iter := r.examples().OrderBy("generated_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate corpus examples")
		}

		var d exampleDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal corpus example")
		}
		corpus.Records = append(corpus.Records, fromExampleDoc(&d))
	}

	if err := corpus.Validate(); err != nil {
		return nil, goerr.Wrap(err, "persisted corpus failed validation")
	}

	return corpus, nil
}

func (r *Repository) Append(ctx context.Context, records ...*model.ExampleRecord) (int, error) {
	if err := r.ensureMeta(ctx); err != nil {
		return 0, err
	}

	added := 0
	for _, rec := range records {
		_, err := r.examples().Doc(string(rec.ID)).Create(ctx, toExampleDoc(rec))
		if err != nil {
			if status.Code(err) == codes.AlreadyExists {
				continue
			}
			return added, goerr.Wrap(err, "failed to create corpus example",
				goerr.V("id", rec.ID), goerr.V("intent", rec.Intent))
		}
		added++
	}

	return added, nil
}

// ensureMeta creates the corpus meta document on first append.
func (r *Repository) ensureMeta(ctx context.Context) error {
	meta := &corpusMeta{
		Version:   model.CorpusVersion,
		Model:     r.modelName,
		Dimension: r.dimension,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.metaRef().Create(ctx, meta); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return goerr.Wrap(err, "failed to create corpus meta")
	}
	return nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}
