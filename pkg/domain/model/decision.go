package model

import "github.com/secmon-lab/augur/pkg/domain/types"

// DecisionSource identifies which tier of the routing pipeline produced a
// decision. The score semantics depend on it: similarity and verified
// decisions carry an embedding cosine similarity, llm and none decisions
// carry fixed sentinel scores.
type DecisionSource string

const (
	// DecisionSimilarity means the nearest neighbor was trusted outright.
	DecisionSimilarity DecisionSource = "similarity"
	// DecisionVerified means the nearest-neighbor guess was confirmed or
	// overridden by the classifier among a narrowed candidate set.
	DecisionVerified DecisionSource = "verified"
	// DecisionLLM means the full-label-set classifier decided without a
	// usable similarity signal.
	DecisionLLM DecisionSource = "llm"
	// DecisionNone means no confident match was found.
	DecisionNone DecisionSource = "none"
)

// RoutingDecision is the transient result of a single routing call.
type RoutingDecision struct {
	Intent types.IntentLabel `json:"intent"`
	Score  float64           `json:"score"`
	Source DecisionSource    `json:"source"`
}
