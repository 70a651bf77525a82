package test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/safetyserv/safetyserv/storage"
	"github.com/stretchr/testify/assert"
)

var SimulatedError = errors.New("simulated error")

// Magic values which cause MemoryStorage to return SimulatedError.
const ErrorEvaluationId = "ERROR"
const ErrorCollection = "error-collection"

type MemoryStorage struct {
	t           *testing.T
	lock        sync.Mutex
	failWrites  atomic.Bool
	failReads   atomic.Bool
	evaluations map[string]*storage.StoredEvaluation
	documents   map[string]map[string]*storage.StoredDocument // collection -> document ID -> document
}

func NewMemoryStorage(t *testing.T) *MemoryStorage {
	return &MemoryStorage{
		t:           t,
		evaluations: make(map[string]*storage.StoredEvaluation),
		documents:   make(map[string]map[string]*storage.StoredDocument),
	}
}

// SetFailWrites - when true, every evaluation upsert returns SimulatedError.
func (m *MemoryStorage) SetFailWrites(fail bool) {
	m.failWrites.Store(fail)
}

// SetFailReads - when true, every evaluation lookup by digest returns SimulatedError.
func (m *MemoryStorage) SetFailReads(fail bool) {
	m.failReads.Store(fail)
}

func (m *MemoryStorage) Close() error {
	// no-op
	return nil
}

func (m *MemoryStorage) GetEvaluation(ctx context.Context, id string) (*storage.StoredEvaluation, error) {
	assert.NotNil(m.t, ctx, "context is required")

	if id == ErrorEvaluationId {
		return nil, SimulatedError
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	return m.evaluations[id], nil
}

func (m *MemoryStorage) GetEvaluationByDigest(ctx context.Context, digest string) (*storage.StoredEvaluation, error) {
	assert.NotNil(m.t, ctx, "context is required")

	if m.failReads.Load() {
		return nil, SimulatedError
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	var latest *storage.StoredEvaluation
	for _, evaluation := range m.evaluations {
		if evaluation.Digest != digest {
			continue
		}
		if latest == nil || evaluation.CreatedAtMillis > latest.CreatedAtMillis {
			latest = evaluation
		}
	}
	return latest, nil
}

func (m *MemoryStorage) UpsertEvaluation(ctx context.Context, evaluation *storage.StoredEvaluation) error {
	assert.NotNil(m.t, ctx, "context is required")

	if evaluation.Id == ErrorEvaluationId || m.failWrites.Load() {
		return SimulatedError
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.evaluations[evaluation.Id] = evaluation
	return nil
}

func (m *MemoryStorage) PruneEvaluations(ctx context.Context, beforeMillis int64) (int64, error) {
	assert.NotNil(m.t, ctx, "context is required")

	m.lock.Lock()
	defer m.lock.Unlock()
	count := int64(0)
	for id, evaluation := range m.evaluations {
		if evaluation.CreatedAtMillis < beforeMillis {
			delete(m.evaluations, id)
			count++
		}
	}
	return count, nil
}

func (m *MemoryStorage) UpsertDocuments(ctx context.Context, documents []*storage.StoredDocument) error {
	assert.NotNil(m.t, ctx, "context is required")

	m.lock.Lock()
	defer m.lock.Unlock()
	for _, doc := range documents {
		if doc.Collection == ErrorCollection {
			return SimulatedError
		}
		if _, ok := m.documents[doc.Collection]; !ok {
			m.documents[doc.Collection] = make(map[string]*storage.StoredDocument)
		}
		m.documents[doc.Collection][doc.DocumentId] = doc
	}
	return nil
}

func (m *MemoryStorage) GetDocuments(ctx context.Context, collection string) ([]*storage.StoredDocument, error) {
	assert.NotNil(m.t, ctx, "context is required")

	if collection == ErrorCollection {
		return nil, SimulatedError
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	docs := make([]*storage.StoredDocument, 0, len(m.documents[collection]))
	for _, doc := range m.documents[collection] {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].DocumentId < docs[j].DocumentId
	})
	return docs, nil
}

func (m *MemoryStorage) DeleteCollection(ctx context.Context, collection string) error {
	assert.NotNil(m.t, ctx, "context is required")

	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.documents, collection)
	return nil
}
