package usecase

import (
	"time"

	"github.com/secmon-lab/augur/pkg/domain/interfaces"
	"github.com/secmon-lab/augur/pkg/domain/model/config"
	"github.com/secmon-lab/augur/pkg/domain/types"
)

type UseCases struct {
	repo       interfaces.CorpusRepository
	embedder   interfaces.EmbeddingProvider
	classifier interfaces.LabelClassifier

	routerCfg      *config.RouterConfig
	generateCount  int
	bootstrapDelay time.Duration

	Router    *RouterUseCase
	Bootstrap *BootstrapUseCase
}

type Option func(*UseCases)

// WithRouterConfig overrides the default routing policy constants.
func WithRouterConfig(cfg *config.RouterConfig) Option {
	return func(uc *UseCases) {
		uc.routerCfg = cfg
	}
}

// WithGenerateCount sets how many paraphrases bootstrap requests per intent.
func WithGenerateCount(n int) Option {
	return func(uc *UseCases) {
		uc.generateCount = n
	}
}

// WithBootstrapDelay sets the pause between consecutive embedding calls
// during bootstrap.
func WithBootstrapDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.bootstrapDelay = d
	}
}

func New(repo interfaces.CorpusRepository, embedder interfaces.EmbeddingProvider, classifier interfaces.LabelClassifier, labels []types.IntentLabel, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:           repo,
		embedder:       embedder,
		classifier:     classifier,
		routerCfg:      config.DefaultRouterConfig(),
		generateCount:  defaultGenerateCount,
		bootstrapDelay: defaultBootstrapDelay,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Router = NewRouterUseCase(repo, embedder, classifier, labels, uc.routerCfg)
	uc.Bootstrap = NewBootstrapUseCase(repo, embedder, classifier, uc.generateCount, uc.bootstrapDelay)

	return uc
}
