package config

import (
	"github.com/m-mizutani/goerr/v2"
	domainConfig "github.com/secmon-lab/augur/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// Router holds CLI flags for the routing decision policy. The defaults
// mirror domainConfig.DefaultRouterConfig and should be recalibrated when
// the embedding model changes.
type Router struct {
	highThreshold    float64
	mediumThreshold  float64
	minimumThreshold float64
	noiseFloor       float64
	topK             int
	verifyDepth      int
	fallbackScore    float64
	noneScore        float64
}

// Flags returns CLI flags for router configuration
func (r *Router) Flags() []cli.Flag {
	defaults := domainConfig.DefaultRouterConfig()
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "high-threshold",
			Usage:       "Similarity at or above which the nearest neighbor is trusted outright",
			Value:       defaults.HighThreshold,
			Sources:     cli.EnvVars("AUGUR_HIGH_THRESHOLD"),
			Destination: &r.highThreshold,
		},
		&cli.FloatFlag{
			Name:        "medium-threshold",
			Usage:       "Similarity at or above which the nearest neighbor is verified by the classifier",
			Value:       defaults.MediumThreshold,
			Sources:     cli.EnvVars("AUGUR_MEDIUM_THRESHOLD"),
			Destination: &r.mediumThreshold,
		},
		&cli.FloatFlag{
			Name:        "minimum-threshold",
			Usage:       "Similarity below which the text is recorded as unmatched",
			Value:       defaults.MinimumThreshold,
			Sources:     cli.EnvVars("AUGUR_MINIMUM_THRESHOLD"),
			Destination: &r.minimumThreshold,
		},
		&cli.FloatFlag{
			Name:        "noise-floor",
			Usage:       "Similarity below which corpus matches are not ranked at all",
			Value:       defaults.NoiseFloor,
			Sources:     cli.EnvVars("AUGUR_NOISE_FLOOR"),
			Destination: &r.noiseFloor,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Maximum number of ranked corpus matches",
			Value:       defaults.TopK,
			Sources:     cli.EnvVars("AUGUR_TOP_K"),
			Destination: &r.topK,
		},
		&cli.IntFlag{
			Name:        "verify-depth",
			Usage:       "Number of top matches whose labels form the verification candidate set",
			Value:       defaults.VerifyDepth,
			Sources:     cli.EnvVars("AUGUR_VERIFY_DEPTH"),
			Destination: &r.verifyDepth,
		},
		&cli.FloatFlag{
			Name:        "fallback-score",
			Usage:       "Fixed score reported for LLM-only decisions",
			Value:       defaults.FallbackScore,
			Sources:     cli.EnvVars("AUGUR_FALLBACK_SCORE"),
			Destination: &r.fallbackScore,
		},
		&cli.FloatFlag{
			Name:        "none-score",
			Usage:       "Fixed score reported when the LLM-only path finds no match",
			Value:       defaults.NoneScore,
			Sources:     cli.EnvVars("AUGUR_NONE_SCORE"),
			Destination: &r.noneScore,
		},
	}
}

// Configure validates the flags and returns the routing policy.
func (r *Router) Configure() (*domainConfig.RouterConfig, error) {
	cfg := &domainConfig.RouterConfig{
		HighThreshold:    r.highThreshold,
		MediumThreshold:  r.mediumThreshold,
		MinimumThreshold: r.minimumThreshold,
		NoiseFloor:       r.noiseFloor,
		TopK:             r.topK,
		VerifyDepth:      r.verifyDepth,
		FallbackScore:    r.fallbackScore,
		NoneScore:        r.noneScore,
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid router configuration")
	}
	return cfg, nil
}
