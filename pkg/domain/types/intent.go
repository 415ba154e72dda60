package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// IntentLabel represents a discrete category of user goal drawn from the
// closed, application-defined intent vocabulary. Labels are compared by
// exact value and are case-sensitive at runtime; the catalog loader
// enforces lowercase form so no casing ambiguity survives configuration.
type IntentLabel string

// IntentNone is the reserved sentinel meaning "no confident match".
// It must not be declared as a regular intent in the catalog.
const IntentNone IntentLabel = "none"

var labelPattern = regexp.MustCompile(`^[a-z0-9]+([_-][a-z0-9]+)*$`)

// Validate checks if the IntentLabel is valid
func (x IntentLabel) Validate() error {
	if x == "" {
		return goerr.New("intent label cannot be empty")
	}
	if !labelPattern.MatchString(string(x)) {
		return goerr.New("intent label must be lowercase alphanumeric with hyphens or underscores", goerr.V("label", x))
	}
	return nil
}

// String returns the string representation of IntentLabel
func (x IntentLabel) String() string {
	return string(x)
}

// IsNone reports whether the label is the reserved `none` sentinel.
func (x IntentLabel) IsNone() bool {
	return x == IntentNone
}
