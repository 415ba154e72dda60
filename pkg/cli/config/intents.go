package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/augur/pkg/domain/model"
	"github.com/secmon-lab/augur/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// IntentCatalog holds CLI flags for the intent definition file.
type IntentCatalog struct {
	path string
}

// Flags returns CLI flags for the intent catalog
func (c *IntentCatalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "intent-config",
			Usage:       "Path to the intent catalog TOML file",
			Required:    true,
			Sources:     cli.EnvVars("AUGUR_INTENT_CONFIG"),
			Destination: &c.path,
		},
	}
}

// CatalogFile is the TOML document shape of the intent catalog.
type CatalogFile struct {
	Intents []IntentEntry `toml:"intent"`
}

// IntentEntry represents one intent definition in the catalog file.
type IntentEntry struct {
	ID          string   `toml:"id"`
	Description string   `toml:"description"`
	Examples    []string `toml:"examples"`
}

// Validate checks if the catalog is valid
func (f *CatalogFile) Validate() error {
	if len(f.Intents) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "intent catalog declares no intents")
	}

	seen := make(map[string]bool, len(f.Intents))
	for _, entry := range f.Intents {
		def := entry.toDefinition()
		if def.Label.IsNone() {
			return goerr.Wrap(ErrReservedIntent, "the none label cannot be declared", goerr.V("id", entry.ID))
		}
		if err := def.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidIntent, err.Error(), goerr.V("id", entry.ID))
		}
		if seen[entry.ID] {
			return goerr.Wrap(ErrDuplicateIntent, "intent declared twice", goerr.V("id", entry.ID))
		}
		seen[entry.ID] = true
	}
	return nil
}

func (e *IntentEntry) toDefinition() model.IntentDefinition {
	return model.IntentDefinition{
		Label:       types.IntentLabel(e.ID),
		Description: e.Description,
		Examples:    e.Examples,
	}
}

// Definitions converts the catalog into domain intent definitions.
func (f *CatalogFile) Definitions() []model.IntentDefinition {
	defs := make([]model.IntentDefinition, len(f.Intents))
	for i, entry := range f.Intents {
		defs[i] = entry.toDefinition()
	}
	return defs
}

// Configure loads and validates the intent catalog from the configured path.
func (c *IntentCatalog) Configure() (*CatalogFile, error) {
	return LoadIntentCatalog(c.path)
}

// LoadIntentCatalog loads the intent catalog from a TOML file
func LoadIntentCatalog(path string) (*CatalogFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read intent catalog", goerr.V("path", path))
	}

	var catalog CatalogFile
	if err := toml.Unmarshal(data, &catalog); err != nil {
		return nil, goerr.Wrap(err, "failed to parse intent catalog TOML", goerr.V("path", path))
	}

	if err := catalog.Validate(); err != nil {
		return nil, goerr.Wrap(err, "intent catalog validation failed", goerr.V("path", path))
	}

	return &catalog, nil
}
