// Package errors provides the structured error type used across the
// watershed toolkit. Every failure surfaced to a caller is an *AppError
// carrying a machine-readable code, a human-readable message and enough
// context (stage, artifact, algorithm, toolbox diagnostic) to diagnose a
// failed run without re-running it.
package errors
