// Package errors provides structured error types for the stack-image library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: entry path, offending
// value, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBuild, errors.KindMalformedEnv).
//		Path("envv[2]").
//		Detail("missing '=' separator").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InteriorNUL(errors.PhaseBuild, path, 3)
//	err := errors.OutOfBounds(errors.PhaseSerialize, off, n, size)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
