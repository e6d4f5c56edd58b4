package registry

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns that are absent from the registry header.
// It is fatal: nothing is computed from a registry with missing columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("registry is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// EmptyInputError reports that methodology filtering left no records.
// This is distinct from a user selection that matches nothing, which is a
// normal empty result.
type EmptyInputError struct {
	Stage string // "eligibility" or "window"
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no records left after %s filtering", e.Stage)
}

// DecodeFallbackWarning is attached to a decode result when none of the
// candidate encodings decoded the input cleanly and undecodable bytes were
// replaced. It is informational and never returned as an error.
type DecodeFallbackWarning struct {
	Tried []string
}

func (w *DecodeFallbackWarning) Error() string {
	return fmt.Sprintf("could not confirm encoding (tried %s); decoded as utf-8 with replacement",
		strings.Join(w.Tried, ", "))
}
