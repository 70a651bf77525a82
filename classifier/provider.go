package classifier

import (
	"context"
	"errors"
	"log"
	"sync"

	typedsf "github.com/t2bot/go-typed-singleflight"
)

const acquireKey = "acquire"

// loadResult - the singleflight's value. Never nil, so a failed load keeps its own error.
type loadResult struct {
	backend Backend
}

// LazyProvider - constructs its backend on the first Acquire and reuses it afterwards. A failed
// construction is remembered: later calls fail immediately until Reprobe is called.
type LazyProvider struct {
	name    string
	factory Factory
	sf      *typedsf.Group[*loadResult]

	mu      sync.RWMutex
	backend Backend
	failure error
}

func NewLazyProvider(name string, factory Factory) *LazyProvider {
	return &LazyProvider{
		name:    name,
		factory: factory,
		sf:      new(typedsf.Group[*loadResult]),
	}
}

func (p *LazyProvider) Acquire(ctx context.Context) (Backend, error) {
	p.mu.RLock()
	backend, failure := p.backend, p.failure
	p.mu.RUnlock()
	if backend != nil {
		return backend, nil
	}
	if failure != nil {
		return nil, failure
	}

	// Concurrent first callers share one construction.
	res, err, _ := p.sf.Do(acquireKey, func() (*loadResult, error) {
		p.mu.RLock()
		if p.backend != nil || p.failure != nil {
			defer p.mu.RUnlock()
			return &loadResult{backend: p.backend}, p.failure
		}
		p.mu.RUnlock()

		log.Printf("[%s] Loading classifier backend", p.name)
		b, err := p.factory(ctx)
		if err == nil && b == nil {
			err = errors.New("factory returned no backend")
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			if !errors.Is(err, ErrBackendUnavailable) {
				err = errors.Join(ErrBackendUnavailable, err)
			}
			log.Printf("[%s] Classifier backend failed to load, keyword fallback will be used: %s", p.name, err)
			p.failure = err
			return &loadResult{}, err
		}
		log.Printf("[%s] Classifier backend %s loaded", p.name, b.Name())
		p.backend = b
		return &loadResult{backend: b}, nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.backend == nil {
		// "should never happen"
		return nil, errors.Join(ErrBackendUnavailable, errors.New("no backend loaded"))
	}
	return res.backend, nil
}

// Reprobe - clears a remembered failure and tries to construct the backend again. A no-op returning
// nil when a backend is already loaded.
func (p *LazyProvider) Reprobe(ctx context.Context) error {
	p.mu.Lock()
	if p.backend != nil {
		p.mu.Unlock()
		return nil
	}
	p.failure = nil
	p.mu.Unlock()

	_, err := p.Acquire(ctx)
	return err
}

// Loaded - true when a backend has been constructed.
func (p *LazyProvider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backend != nil
}

func (p *LazyProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend == nil {
		return nil
	}
	err := p.backend.Close()
	p.backend = nil
	return err
}

// StaticProvider - always hands out the same, already constructed backend.
type StaticProvider struct {
	Backend Backend
}

func (p *StaticProvider) Acquire(ctx context.Context) (Backend, error) {
	if p.Backend == nil {
		return nil, errors.Join(ErrBackendUnavailable, errors.New("static provider has no backend"))
	}
	return p.Backend, nil
}

// UnavailableProvider - never has a backend. Evaluations always use the keyword fallback.
type UnavailableProvider struct {
	// Optional. Defaults to ErrNotConfigured.
	Reason error
}

func (p *UnavailableProvider) Acquire(ctx context.Context) (Backend, error) {
	reason := p.Reason
	if reason == nil {
		reason = ErrNotConfigured
	}
	return nil, errors.Join(ErrBackendUnavailable, reason)
}
