package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/repository/firestore"
	"github.com/secmon-lab/augur/pkg/repository/gcs"
	"github.com/secmon-lab/augur/pkg/repository/local"
	"github.com/secmon-lab/augur/pkg/repository/memory"
)

const (
	testModel     = "text-embedding-004"
	testDimension = 3
)

// runCorpusRepositoryTest exercises the CorpusRepository contract against
// an arbitrary backend.
func runCorpusRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.CorpusRepository) {
	t.Run("cold start returns no corpus", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		corpus, err := repo.Load(context.Background())
		gt.NoError(t, err)
		gt.Value(t, corpus).Nil()
	})

	t.Run("append then load", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()
		ctx := context.Background()

		added, err := repo.Append(ctx,
			model.NewExampleRecord("greeting", "hello", model.Embedding{1, 0, 0}),
			model.NewExampleRecord("farewell", "bye", model.Embedding{0, 1, 0}),
		)
		gt.NoError(t, err)
		gt.Value(t, added).Equal(2)

		corpus, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, corpus).NotNil().Required()
		gt.Value(t, corpus.Model).Equal(testModel)
		gt.Value(t, corpus.Dimension).Equal(testDimension)
		gt.Array(t, corpus.Records).Length(2)
	})

	t.Run("append is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()
		ctx := context.Background()

		rec := model.NewExampleRecord("greeting", "hello", model.Embedding{1, 0, 0})
		added, err := repo.Append(ctx, rec)
		gt.NoError(t, err)
		gt.Value(t, added).Equal(1)

		// Same normalized text under the same intent maps to the same ID.
		dup := model.NewExampleRecord("greeting", "  HELLO  ", model.Embedding{1, 0, 0})
		added, err = repo.Append(ctx, dup)
		gt.NoError(t, err)
		gt.Value(t, added).Equal(0)

		corpus, err := repo.Load(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, corpus.Records).Length(1)
	})

	t.Run("append reports only new records", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()
		ctx := context.Background()

		first := model.NewExampleRecord("faq", "how does this work", model.Embedding{0, 0, 1})
		_, err := repo.Append(ctx, first)
		gt.NoError(t, err)

		added, err := repo.Append(ctx,
			first,
			model.NewExampleRecord("faq", "what is this", model.Embedding{0, 1, 1}),
		)
		gt.NoError(t, err)
		gt.Value(t, added).Equal(1)
	})
}

func TestMemoryRepository(t *testing.T) {
	runCorpusRepositoryTest(t, func(t *testing.T) interfaces.CorpusRepository {
		return memory.New(testModel, testDimension)
	})
}

func TestLocalRepository(t *testing.T) {
	runCorpusRepositoryTest(t, func(t *testing.T) interfaces.CorpusRepository {
		return local.New(filepath.Join(t.TempDir(), "corpus.json"), testModel, testDimension)
	})
}

func TestLocalRepositoryPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")

	t.Run("survives reopen", func(t *testing.T) {
		repo := local.New(path, testModel, testDimension)
		_, err := repo.Append(ctx, model.NewExampleRecord("greeting", "hello", model.Embedding{1, 0, 0}))
		gt.NoError(t, err)
		gt.NoError(t, repo.Close())

		reopened := local.New(path, testModel, testDimension)
		defer reopened.Close()
		corpus, err := reopened.Load(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, corpus).NotNil().Required()
		gt.Array(t, corpus.Records).Length(1)
		gt.Value(t, corpus.Records[0].Text).Equal("hello")
	})

	t.Run("leaves a backup copy", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		gt.NoError(t, err).Required()

		backups := 0
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".bak") {
				backups++
			}
		}
		gt.Number(t, backups).Greater(0)
	})

	t.Run("rejects a corpus from another model", func(t *testing.T) {
		repo := local.New(path, "other-model", testDimension)
		defer repo.Close()
		_, err := repo.Load(ctx)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrCorpusMismatch)).True()
	})

	t.Run("rejects a corpus with another dimension", func(t *testing.T) {
		repo := local.New(path, testModel, testDimension+1)
		defer repo.Close()
		_, err := repo.Append(ctx, model.NewExampleRecord("greeting", "hi", model.Embedding{1, 0, 0, 0}))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrCorpusMismatch)).True()
	})

	t.Run("rejects a corrupt file", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "corpus.json")
		gt.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))

		repo := local.New(broken, testModel, testDimension)
		defer repo.Close()
		_, err := repo.Load(ctx)
		gt.Error(t, err)
	})
}

func TestFirestoreRepository(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID are required")
	}

	runCorpusRepositoryTest(t, func(t *testing.T) interfaces.CorpusRepository {
		prefix := "test_" + strings.ReplaceAll(t.Name(), "/", "_") + "_"
		repo, err := firestore.New(context.Background(), projectID, databaseID, testModel, testDimension,
			firestore.WithCollectionPrefix(prefix))
		gt.NoError(t, err).Required()
		return repo
	})
}

func TestGCSRepository(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET_NAME")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET_NAME is required")
	}

	runCorpusRepositoryTest(t, func(t *testing.T) interfaces.CorpusRepository {
		repo, err := gcs.New(context.Background(), bucket, testModel, testDimension,
			gcs.WithObjectName("test/"+t.Name()+"/corpus.json"))
		gt.NoError(t, err).Required()
		return repo
	})
}
