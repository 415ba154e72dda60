package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/augur/pkg/domain/model/config"
)

func TestRouterConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		gt.NoError(t, config.DefaultRouterConfig().Validate())
	})

	t.Run("rejects inverted thresholds", func(t *testing.T) {
		cfg := config.DefaultRouterConfig()
		cfg.MediumThreshold = 0.9
		gt.Error(t, cfg.Validate())
	})

	t.Run("rejects a noise floor above the minimum threshold", func(t *testing.T) {
		cfg := config.DefaultRouterConfig()
		cfg.NoiseFloor = 0.5
		gt.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive topK", func(t *testing.T) {
		cfg := config.DefaultRouterConfig()
		cfg.TopK = 0
		gt.Error(t, cfg.Validate())
	})

	t.Run("rejects an out-of-range fallback score", func(t *testing.T) {
		cfg := config.DefaultRouterConfig()
		cfg.FallbackScore = 1.5
		gt.Error(t, cfg.Validate())
	})
}
