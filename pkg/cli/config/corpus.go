package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/repository/firestore"
	"github.com/secmon-lab/augur/pkg/repository/gcs"
	"github.com/secmon-lab/augur/pkg/repository/local"
	"github.com/secmon-lab/augur/pkg/repository/memory"
	"github.com/secmon-lab/augur/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Corpus holds CLI flags for corpus storage and the embedding model the
// corpus is bound to.
type Corpus struct {
	backend    string
	path       string
	projectID  string
	databaseID string
	bucket     string

	embeddingModel     string
	embeddingDimension int
}

// Flags returns CLI flags for corpus configuration
func (c *Corpus) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus-backend",
			Usage:       "Corpus storage backend (memory, local, firestore, or gcs)",
			Value:       "local",
			Sources:     cli.EnvVars("AUGUR_CORPUS_BACKEND"),
			Destination: &c.backend,
		},
		&cli.StringFlag{
			Name:        "corpus-path",
			Usage:       "Corpus file path (local backend)",
			Value:       "corpus.json",
			Sources:     cli.EnvVars("AUGUR_CORPUS_PATH"),
			Destination: &c.path,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (firestore backend)",
			Sources:     cli.EnvVars("AUGUR_FIRESTORE_PROJECT_ID"),
			Destination: &c.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("AUGUR_FIRESTORE_DATABASE_ID"),
			Destination: &c.databaseID,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket name (gcs backend)",
			Sources:     cli.EnvVars("AUGUR_GCS_BUCKET"),
			Destination: &c.bucket,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name the corpus is bound to",
			Value:       "text-embedding-004",
			Sources:     cli.EnvVars("AUGUR_EMBEDDING_MODEL"),
			Destination: &c.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       256,
			Sources:     cli.EnvVars("AUGUR_EMBEDDING_DIMENSION"),
			Destination: &c.embeddingDimension,
		},
	}
}

// LogValue returns log attributes for the corpus configuration
func (c Corpus) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", c.backend),
		slog.String("model", c.embeddingModel),
		slog.Int("dimension", c.embeddingDimension),
	)
}

// EmbeddingModel returns the configured embedding model name
func (c *Corpus) EmbeddingModel() string {
	return c.embeddingModel
}

// EmbeddingDimension returns the configured embedding vector dimension
func (c *Corpus) EmbeddingDimension() int {
	return c.embeddingDimension
}

// Configure initializes and returns a corpus repository based on the
// configured backend. The caller is responsible for calling Close() on the
// returned repository.
func (c *Corpus) Configure(ctx context.Context) (interfaces.CorpusRepository, error) {
	if c.embeddingModel == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "embedding-model is required")
	}
	if c.embeddingDimension <= 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "embedding-dimension must be positive",
			goerr.V("dimension", c.embeddingDimension))
	}

	switch c.backend {
	case "memory":
		logging.Default().Info("Using in-memory corpus store (development mode)")
		return memory.New(c.embeddingModel, c.embeddingDimension), nil

	case "local":
		if c.path == "" {
			return nil, goerr.Wrap(ErrMissingBackendArg, "corpus-path is required when using local backend")
		}
		logging.Default().Info("Using local corpus store", "path", c.path)
		return local.New(c.path, c.embeddingModel, c.embeddingDimension), nil

	case "firestore":
		if c.projectID == "" {
			return nil, goerr.Wrap(ErrMissingBackendArg, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, c.projectID, c.databaseID, c.embeddingModel, c.embeddingDimension)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore corpus store")
		}
		logging.Default().Info("Using Firestore corpus store",
			"project_id", c.projectID,
			"database_id", c.databaseID,
		)
		return repo, nil

	case "gcs":
		if c.bucket == "" {
			return nil, goerr.Wrap(ErrMissingBackendArg, "gcs-bucket is required when using gcs backend")
		}
		repo, err := gcs.New(ctx, c.bucket, c.embeddingModel, c.embeddingDimension)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize gcs corpus store")
		}
		logging.Default().Info("Using Cloud Storage corpus store", "bucket", c.bucket)
		return repo, nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "corpus backend must be memory, local, firestore, or gcs",
			goerr.V("backend", c.backend))
	}
}
