package main

import (
	"encoding/csv"
	"errors"

	"github.com/matsen/pubfrac/internal/registry"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config)
	ExitDataError   = 3 // Data error (missing columns, malformed registry)
	ExitEmptyInput  = 4 // Methodology filtering left no records
)

// exitCodeFor maps a pipeline error to its exit code.
func exitCodeFor(err error) int {
	var (
		schemaErr  *registry.SchemaError
		emptyInput *registry.EmptyInputError
		parseErr   *csv.ParseError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &schemaErr), errors.As(err, &parseErr):
		return ExitDataError
	case errors.As(err, &emptyInput):
		return ExitEmptyInput
	}
	return ExitError
}
