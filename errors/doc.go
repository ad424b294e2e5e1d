// Package errors provides unified error handling for regkit.
// It implements structured error types with machine-readable codes and
// retryable detection so callers can distinguish a fatal failure (the
// registry client cannot be built) from a transient one (a single
// registration or heartbeat attempt failed).
package errors
