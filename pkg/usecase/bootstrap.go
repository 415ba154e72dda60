package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/utils/errutil"
	"github.com/secmon-lab/augur/pkg/utils/logging"
)

const (
	defaultGenerateCount  = 10
	defaultBootstrapDelay = 500 * time.Millisecond
)

// BootstrapUseCase expands an intent catalog into the initial example
// corpus: paraphrases are generated per intent, every example is embedded,
// and the result is persisted in one batch. It runs out-of-band, not on
// the request path.
type BootstrapUseCase struct {
	repo          interfaces.CorpusRepository
	embedder      interfaces.EmbeddingProvider
	classifier    interfaces.LabelClassifier
	generateCount int
	delay         time.Duration
}

func NewBootstrapUseCase(repo interfaces.CorpusRepository, embedder interfaces.EmbeddingProvider, classifier interfaces.LabelClassifier, generateCount int, delay time.Duration) *BootstrapUseCase {
	if generateCount <= 0 {
		generateCount = defaultGenerateCount
	}
	return &BootstrapUseCase{
		repo:          repo,
		embedder:      embedder,
		classifier:    classifier,
		generateCount: generateCount,
		delay:         delay,
	}
}

// BootstrapResult summarizes one bootstrap run.
type BootstrapResult struct {
	Intents           int
	SeedExamples      int
	GeneratedExamples int
	FailedGenerations int
	SkippedExamples   int
	AddedRecords      int
}

// Bootstrap builds and persists example records for every definition in
// the catalog. A failed paraphrase generation degrades that one intent to
// its seed examples; a failed embedding skips that one example. Only a
// complete inability to produce records, or a persistence failure, fails
// the whole run.
func (u *BootstrapUseCase) Bootstrap(ctx context.Context, defs []model.IntentDefinition) (*BootstrapResult, error) {
	if len(defs) == 0 {
		return nil, goerr.New("intent catalog is empty")
	}
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid intent definition")
		}
	}

	logger := logging.From(ctx)
	result := &BootstrapResult{Intents: len(defs)}
	var records []*model.ExampleRecord

	for _, def := range defs {
		texts := make([]string, 0, len(def.Examples)+u.generateCount)
		seen := make(map[string]bool, len(def.Examples)+u.generateCount)
		for _, ex := range def.Examples {
			key := model.NormalizeExampleText(ex)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			texts = append(texts, ex)
		}
		result.SeedExamples += len(texts)

		generated, err := u.classifier.GenerateExamples(ctx, def, u.generateCount)
		if err != nil {
			errutil.Handle(ctx, err, "example generation failed, using seed examples only")
			result.FailedGenerations++
		}
		for _, ex := range generated {
			key := model.NormalizeExampleText(ex)
			if seen[key] {
				continue
			}
			seen[key] = true
			texts = append(texts, ex)
			result.GeneratedExamples++
		}

		for _, text := range texts {
			if len(records) > 0 {
				if err := sleep(ctx, u.delay); err != nil {
					return result, goerr.Wrap(err, "bootstrap canceled")
				}
			}

			emb, err := u.embedder.Embed(ctx, text)
			if err != nil {
				errutil.Handle(ctx, err, "failed to embed bootstrap example, skipping")
				result.SkippedExamples++
				continue
			}
			records = append(records, model.NewExampleRecord(def.Label, text, emb))
		}

		logger.Info("bootstrapped intent",
			"intent", def.Label,
			"examples", len(texts))
	}

	if len(records) == 0 {
		return result, goerr.New("no examples could be embedded")
	}

	added, err := u.repo.Append(ctx, records...)
	if err != nil {
		return result, goerr.Wrap(err, "failed to persist bootstrap corpus")
	}
	result.AddedRecords = added

	logger.Info("bootstrap complete",
		"intents", result.Intents,
		"records", len(records),
		"added", added)
	return result, nil
}

// sleep pauses between upstream calls to respect provider rate limits.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
