package test

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/safetyserv/safetyserv/classifier"
)

// FakeBackend - a classifier.Backend returning a fixed distribution (or error).
type FakeBackend struct {
	Probs []float64
	Err   error
	// Optional. When set, replaces Probs/Err.
	ClassifyFn func(ctx context.Context, text string, maxLength int) ([]float64, error)

	calls     atomic.Int64
	lastInput atomic.Value
	closed    atomic.Bool
}

func (b *FakeBackend) Name() string {
	return "fake"
}

func (b *FakeBackend) Classify(ctx context.Context, text string, maxLength int) ([]float64, error) {
	b.calls.Add(1)
	b.lastInput.Store(text)
	if b.ClassifyFn != nil {
		return b.ClassifyFn(ctx, text, maxLength)
	}
	return b.Probs, b.Err
}

func (b *FakeBackend) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *FakeBackend) Calls() int {
	return int(b.calls.Load())
}

func (b *FakeBackend) LastInput() string {
	v, _ := b.lastInput.Load().(string)
	return v
}

func (b *FakeBackend) Closed() bool {
	return b.closed.Load()
}

// FailingProvider - a classifier.Provider that always fails to construct its backend.
type FailingProvider struct {
	calls atomic.Int64
}

func (p *FailingProvider) Acquire(ctx context.Context) (classifier.Backend, error) {
	p.calls.Add(1)
	return nil, errors.Join(classifier.ErrBackendUnavailable, SimulatedError)
}

func (p *FailingProvider) Calls() int {
	return int(p.calls.Load())
}
