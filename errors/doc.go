// Package errors provides structured error types for the metadata pipeline.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Extraction-phase problems are recoverable: the offending declaration is skipped
// with a warning and the run continues. Emission-phase structural problems are
// collected per partition into an UnresolvedError so callers can fix every missing
// traverse entry or type import at once.
//
//	err := errors.Unsupported(errors.PhaseExtract, "variadic function `printf`")
//	err := errors.NotFound(errors.PhaseSeed, "metadata file", path)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
