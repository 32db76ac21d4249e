// Package errors provides the structured error type shared by the reference
// service. Every error carries a machine-readable code, an HTTP status and a
// retryable flag so handlers can render it without inspecting its origin.
package errors
