package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/augur/pkg/domain/types"
)

// IntentDefinition is one entry of the intent catalog: a label, its human
// description, and hand-written seed examples. The catalog drives corpus
// bootstrap and provides the closed label set for LLM-only classification;
// it is not touched after corpus creation.
type IntentDefinition struct {
	Label       types.IntentLabel
	Description string
	Examples    []string
}

// Validate checks if the IntentDefinition is valid
func (d *IntentDefinition) Validate() error {
	if err := d.Label.Validate(); err != nil {
		return goerr.Wrap(err, "invalid intent label")
	}
	if d.Label.IsNone() {
		return goerr.New("the none sentinel cannot be declared as an intent", goerr.V("label", d.Label))
	}
	if d.Description == "" {
		return goerr.New("intent description is required", goerr.V("label", d.Label))
	}
	if len(d.Examples) == 0 {
		return goerr.New("intent requires at least one seed example", goerr.V("label", d.Label))
	}
	return nil
}

// Labels extracts the deduplicated label set of a catalog, preserving
// declaration order.
func Labels(defs []IntentDefinition) []types.IntentLabel {
	seen := make(map[types.IntentLabel]bool, len(defs))
	labels := make([]types.IntentLabel, 0, len(defs))
	for _, d := range defs {
		if seen[d.Label] {
			continue
		}
		seen[d.Label] = true
		labels = append(labels, d.Label)
	}
	return labels
}
