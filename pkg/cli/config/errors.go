package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrDuplicateIntent   = goerr.New("duplicate intent label")
	ErrReservedIntent    = goerr.New("reserved intent label")
	ErrInvalidIntent     = goerr.New("invalid intent definition")
	ErrUnknownBackend    = goerr.New("unknown corpus backend")
	ErrMissingBackendArg = goerr.New("missing backend configuration")
)
