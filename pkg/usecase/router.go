package usecase

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/domain/model/config"
	"github.com/secmon-lab/augur/pkg/domain/types"
	"github.com/secmon-lab/augur/pkg/utils/async"
	"github.com/secmon-lab/augur/pkg/utils/errutil"
	"github.com/secmon-lab/augur/pkg/utils/logging"
)

// RouterUseCase maps free-form text to an intent label through a tiered
// decision policy: nearest-neighbor search over the example corpus first,
// classifier verification or full classification when similarity alone is
// not conclusive. Decisions feed back into the corpus as new examples.
//
// The corpus is loaded in the background at construction; the first Route
// call waits for the load to settle. Classification uncertainty is data,
// not an error: Route always produces a decision.
type RouterUseCase struct {
	repo       interfaces.CorpusRepository
	embedder   interfaces.EmbeddingProvider
	classifier interfaces.LabelClassifier
	labels     []types.IntentLabel
	cfg        *config.RouterConfig

	ready chan struct{}

	mu      sync.RWMutex
	records []*model.ExampleRecord
	ids     map[model.ExampleID]struct{}
}

func NewRouterUseCase(repo interfaces.CorpusRepository, embedder interfaces.EmbeddingProvider, classifier interfaces.LabelClassifier, labels []types.IntentLabel, cfg *config.RouterConfig) *RouterUseCase {
	if cfg == nil {
		cfg = config.DefaultRouterConfig()
	}

	r := &RouterUseCase{
		repo:       repo,
		embedder:   embedder,
		classifier: classifier,
		labels:     slices.Clone(labels),
		cfg:        cfg,
		ready:      make(chan struct{}),
		ids:        make(map[model.ExampleID]struct{}),
	}

	async.Dispatch(context.Background(), r.loadCorpus)

	return r
}

// loadCorpus populates the in-memory record index. Load failures leave the
// router in the cold-start state instead of failing construction: the
// LLM-only path still works without a corpus.
func (r *RouterUseCase) loadCorpus(ctx context.Context) error {
	defer close(r.ready)

	corpus, err := r.repo.Load(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load intent corpus, starting cold",
			"error", goerr.Unwrap(err))
		return nil
	}
	if corpus == nil {
		logging.From(ctx).Info("no intent corpus found, starting cold")
		return nil
	}

	r.mu.Lock()
	r.records = corpus.Records
	for _, rec := range corpus.Records {
		r.ids[rec.ID] = struct{}{}
	}
	r.mu.Unlock()

	logging.From(ctx).Info("intent corpus loaded",
		"records", len(corpus.Records),
		"model", corpus.Model,
		"dimension", corpus.Dimension)
	return nil
}

// Route classifies the text and returns the decision. It never fails:
// provider errors degrade through the decision tiers and bottom out at
// (none, 0.0).
func (r *RouterUseCase) Route(ctx context.Context, text string) model.RoutingDecision {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.RoutingDecision{Intent: types.IntentNone, Score: 0, Source: model.DecisionNone}
	}

	select {
	case <-r.ready:
	case <-ctx.Done():
		return model.RoutingDecision{Intent: types.IntentNone, Score: 0, Source: model.DecisionNone}
	}

	decision, err := r.decide(ctx, text)
	if err == nil {
		return decision
	}
	errutil.Handle(ctx, err, "intent decision failed, retrying with full classification")

	decision, err = r.classifyWithLLM(ctx, text, nil)
	if err != nil {
		errutil.Handle(ctx, err, "fallback classification failed")
		return model.RoutingDecision{Intent: types.IntentNone, Score: 0, Source: model.DecisionNone}
	}
	return decision
}

type match struct {
	record *model.ExampleRecord
	score  float64
}

func (r *RouterUseCase) decide(ctx context.Context, text string) (model.RoutingDecision, error) {
	records := r.snapshot()
	if len(records) == 0 {
		return r.classifyWithLLM(ctx, text, nil)
	}

	emb, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return model.RoutingDecision{}, goerr.Wrap(err, "failed to embed input text")
	}

	matches, best, err := r.rank(emb, records)
	if err != nil {
		return model.RoutingDecision{}, err
	}

	switch {
	case len(matches) > 0 && matches[0].score >= r.cfg.HighThreshold:
		top := matches[0]
		r.selfTrain(ctx, top.record.Intent, text, emb)
		return model.RoutingDecision{Intent: top.record.Intent, Score: top.score, Source: model.DecisionSimilarity}, nil

	case len(matches) > 0 && matches[0].score >= r.cfg.MediumThreshold:
		return r.verify(ctx, text, emb, matches), nil

	case len(matches) > 0 && matches[0].score >= r.cfg.MinimumThreshold:
		return r.classifyWithLLM(ctx, text, emb)

	default:
		// Too far from everything we know. Remember the text under none
		// so near-duplicates stop escalating to the LLM.
		r.selfTrain(ctx, types.IntentNone, text, emb)
		return model.RoutingDecision{Intent: types.IntentNone, Score: best, Source: model.DecisionNone}, nil
	}
}

// rank scores the query embedding against every record, drops matches
// below the noise floor, and returns the top-K by descending similarity
// together with the best raw score.
func (r *RouterUseCase) rank(emb model.Embedding, records []*model.ExampleRecord) ([]match, float64, error) {
	matches := make([]match, 0, len(records))
	best := 0.0
	for _, rec := range records {
		score, err := model.CosineSimilarity(emb, rec.Embedding)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "corpus and embedding provider are out of sync",
				goerr.V("id", rec.ID), goerr.V("intent", rec.Intent))
		}
		if score > best {
			best = score
		}
		if score <= r.cfg.NoiseFloor {
			continue
		}
		matches = append(matches, match{record: rec, score: score})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > r.cfg.TopK {
		matches = matches[:r.cfg.TopK]
	}
	return matches, best, nil
}

// verify asks the classifier to pick among the labels of the strongest
// matches. The classifier acts as a verifier here, so the reported score
// stays the embedding similarity. A failed or empty verification falls
// back to the nearest neighbor rather than surfacing an error.
func (r *RouterUseCase) verify(ctx context.Context, text string, emb model.Embedding, matches []match) model.RoutingDecision {
	top := matches[0]

	depth := min(r.cfg.VerifyDepth, len(matches))
	candidates := make([]types.IntentLabel, 0, depth+1)
	seen := make(map[types.IntentLabel]bool, depth+1)
	for _, m := range matches[:depth] {
		if seen[m.record.Intent] {
			continue
		}
		seen[m.record.Intent] = true
		candidates = append(candidates, m.record.Intent)
	}
	if !seen[types.IntentNone] {
		candidates = append(candidates, types.IntentNone)
	}

	label, err := r.classifier.Classify(ctx, text, candidates)
	if err != nil {
		errutil.Handle(ctx, err, "verification failed, trusting nearest neighbor")
		label = top.record.Intent
	} else if label.IsNone() {
		label = top.record.Intent
	} else if label != top.record.Intent {
		r.selfTrain(ctx, label, text, emb)
		return model.RoutingDecision{Intent: label, Score: top.score, Source: model.DecisionVerified}
	}

	r.selfTrain(ctx, label, text, emb)
	return model.RoutingDecision{Intent: label, Score: top.score, Source: model.DecisionSimilarity}
}

// classifyWithLLM runs the full-label-set classification path, used for
// cold start and for similarity scores too weak to verify. The decision
// carries a fixed score so callers can tell it apart from a similarity.
func (r *RouterUseCase) classifyWithLLM(ctx context.Context, text string, emb model.Embedding) (model.RoutingDecision, error) {
	candidates := make([]types.IntentLabel, 0, len(r.labels)+1)
	seen := make(map[types.IntentLabel]bool, len(r.labels)+1)
	for _, l := range r.labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		candidates = append(candidates, l)
	}
	if !seen[types.IntentNone] {
		candidates = append(candidates, types.IntentNone)
	}

	label, err := r.classifier.Classify(ctx, text, candidates)
	if err != nil {
		return model.RoutingDecision{}, goerr.Wrap(err, "full classification failed")
	}

	if label.IsNone() {
		return model.RoutingDecision{Intent: types.IntentNone, Score: r.cfg.NoneScore, Source: model.DecisionNone}, nil
	}

	r.selfTrainLazy(ctx, label, text, emb)
	return model.RoutingDecision{Intent: label, Score: r.cfg.FallbackScore, Source: model.DecisionLLM}, nil
}

func (r *RouterUseCase) snapshot() []*model.ExampleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records
}

// selfTrain records the (intent, text, embedding) triple in the background
// without blocking the caller's response. Persistence failures are logged
// by the dispatcher; duplicates are absorbed by the deterministic ID.
func (r *RouterUseCase) selfTrain(ctx context.Context, intent types.IntentLabel, text string, emb model.Embedding) {
	async.Dispatch(ctx, func(ctx context.Context) error {
		return r.record(ctx, intent, text, emb)
	})
}

// selfTrainLazy is selfTrain for the LLM-only path, where the embedding
// may not have been computed yet.
func (r *RouterUseCase) selfTrainLazy(ctx context.Context, intent types.IntentLabel, text string, emb model.Embedding) {
	async.Dispatch(ctx, func(ctx context.Context) error {
		if emb == nil {
			var err error
			emb, err = r.embedder.Embed(ctx, text)
			if err != nil {
				return goerr.Wrap(err, "failed to embed text for self-training",
					goerr.V("intent", intent))
			}
		}
		return r.record(ctx, intent, text, emb)
	})
}

func (r *RouterUseCase) record(ctx context.Context, intent types.IntentLabel, text string, emb model.Embedding) error {
	rec := model.NewExampleRecord(intent, text, emb)

	r.mu.Lock()
	if _, exists := r.ids[rec.ID]; exists {
		r.mu.Unlock()
		return nil
	}
	r.ids[rec.ID] = struct{}{}
	r.records = append(slices.Clip(r.records), rec)
	r.mu.Unlock()

	if _, err := r.repo.Append(ctx, rec); err != nil {
		return goerr.Wrap(err, "failed to persist self-trained example",
			goerr.V("intent", intent), goerr.V("id", rec.ID))
	}

	logging.From(ctx).Debug("recorded example", "intent", intent, "id", rec.ID)
	return nil
}
