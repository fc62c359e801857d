// internal/domain/errs/errs.go

// Package errs defines the error taxonomy shared by stores, the clarity
// pipeline, and the HTTP layer.
//
// Producers wrap a sentinel with detail:
//
//	return fmt.Errorf("%w: textOriginal is required", errs.ErrValidation)
//
// and consumers branch with errors.Is. The HTTP mapping lives in
// system/jsonapi.
package errs

import "errors"

var (
	// ErrValidation marks missing or malformed required input. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrForbidden marks an authorization failure (e.g. editing another
	// user's message). Surfaced, never retried.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a referenced channel, message, organization or
	// glossary entry that does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable marks a jargon detector that could not be
	// reached, timed out, or answered with a non-success status.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRewriteFailed marks a generative rewrite that errored or produced
	// empty output.
	ErrRewriteFailed = errors.New("rewrite failed")
)
