package classifier

import (
	"context"
	"errors"
)

// ErrBackendUnavailable - the backend could not be constructed (missing model files, runtime library,
// credentials, ...). Wrapped together with the underlying cause.
var ErrBackendUnavailable = errors.New("classifier backend unavailable")

// ErrNotConfigured - no backend was configured for this process.
var ErrNotConfigured = errors.New("no classifier backend configured")

// Backend - a sequence-classification backend. Implementations must be safe for concurrent use once
// constructed.
type Backend interface {
	// Name - the name of the backend for logging and metrics.
	Name() string

	// Classify - scores the text, truncating it to at most maxLength tokens, and returns a probability
	// distribution over the backend's labels. Index 1 is the "harmful" class for two-class schemes.
	Classify(ctx context.Context, text string, maxLength int) ([]float64, error)

	// Close - releases any resources held by the backend.
	Close() error
}

// Provider - hands out a Backend, constructing it if needed. Acquire returns an error wrapping
// ErrBackendUnavailable when no backend can be used.
type Provider interface {
	Acquire(ctx context.Context) (Backend, error)
}

// Factory - constructs a Backend. Used by LazyProvider.
type Factory func(ctx context.Context) (Backend, error)
