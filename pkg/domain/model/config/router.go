package config

import "github.com/m-mizutani/goerr/v2"

// RouterConfig holds the tunable constants of the routing decision policy.
// The defaults come from calibration against a general-purpose embedding
// model; deployments should adjust them per model and intent catalog.
type RouterConfig struct {
	// HighThreshold and above: the nearest neighbor is trusted outright.
	HighThreshold float64
	// MediumThreshold up to HighThreshold: the nearest neighbor is
	// verified by the classifier among a narrowed candidate set.
	MediumThreshold float64
	// MinimumThreshold up to MediumThreshold: escalate to full LLM-only
	// classification. Below MinimumThreshold the text is recorded as none.
	MinimumThreshold float64
	// NoiseFloor drops matches too weak to be worth ranking.
	NoiseFloor float64
	// TopK bounds the ranked match list.
	TopK int
	// VerifyDepth is how many top matches contribute candidate labels to
	// the verification tier.
	VerifyDepth int
	// FallbackScore is the fixed score reported for LLM-only decisions;
	// it marks the confidence as model-derived rather than
	// similarity-derived.
	FallbackScore float64
	// NoneScore is the fixed score reported when the LLM-only path finds
	// no match.
	NoneScore float64
}

// DefaultRouterConfig returns the calibrated default policy.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		HighThreshold:    0.78,
		MediumThreshold:  0.55,
		MinimumThreshold: 0.30,
		NoiseFloor:       0.1,
		TopK:             20,
		VerifyDepth:      3,
		FallbackScore:    0.75,
		NoneScore:        0.3,
	}
}

// Validate checks threshold ordering and bounds.
func (c *RouterConfig) Validate() error {
	if !(c.MinimumThreshold < c.MediumThreshold && c.MediumThreshold < c.HighThreshold) {
		return goerr.New("thresholds must satisfy minimum < medium < high",
			goerr.V("minimum", c.MinimumThreshold),
			goerr.V("medium", c.MediumThreshold),
			goerr.V("high", c.HighThreshold))
	}
	if c.MinimumThreshold <= 0 || c.HighThreshold > 1 {
		return goerr.New("thresholds must be within (0, 1]",
			goerr.V("minimum", c.MinimumThreshold),
			goerr.V("high", c.HighThreshold))
	}
	if c.NoiseFloor < 0 || c.NoiseFloor >= c.MinimumThreshold {
		return goerr.New("noise floor must be non-negative and below the minimum threshold",
			goerr.V("noiseFloor", c.NoiseFloor),
			goerr.V("minimum", c.MinimumThreshold))
	}
	if c.TopK <= 0 {
		return goerr.New("topK must be positive", goerr.V("topK", c.TopK))
	}
	if c.VerifyDepth <= 0 {
		return goerr.New("verify depth must be positive", goerr.V("verifyDepth", c.VerifyDepth))
	}
	if c.FallbackScore <= 0 || c.FallbackScore > 1 {
		return goerr.New("fallback score must be within (0, 1]", goerr.V("fallbackScore", c.FallbackScore))
	}
	if c.NoneScore < 0 || c.NoneScore > 1 {
		return goerr.New("none score must be within [0, 1]", goerr.V("noneScore", c.NoneScore))
	}
	return nil
}
