package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/storage"
	"github.com/safetyserv/safetyserv/test"
	"github.com/stretchr/testify/assert"
)

func TestPruneEvaluations(t *testing.T) {
	t.Parallel()

	db := test.NewMemoryStorage(t)
	now := time.Now()
	old := &storage.StoredEvaluation{Id: "old", Digest: "a", CreatedAtMillis: now.Add(-48 * time.Hour).UnixMilli()}
	recent := &storage.StoredEvaluation{Id: "recent", Digest: "b", CreatedAtMillis: now.Add(-1 * time.Hour).UnixMilli()}
	assert.NoError(t, db.UpsertEvaluation(context.Background(), old))
	assert.NoError(t, db.UpsertEvaluation(context.Background(), recent))

	PruneEvaluations(db, &config.InstanceConfig{RetentionDays: 1})

	res, err := db.GetEvaluation(context.Background(), "old")
	assert.NoError(t, err)
	assert.Nil(t, res)
	res, err = db.GetEvaluation(context.Background(), "recent")
	assert.NoError(t, err)
	assert.Equal(t, recent, res)
}

func TestPruneEvaluationsDisabled(t *testing.T) {
	t.Parallel()

	db := test.NewMemoryStorage(t)
	old := &storage.StoredEvaluation{Id: "old", Digest: "a", CreatedAtMillis: 1}
	assert.NoError(t, db.UpsertEvaluation(context.Background(), old))

	PruneEvaluations(db, &config.InstanceConfig{RetentionDays: 0})

	res, err := db.GetEvaluation(context.Background(), "old")
	assert.NoError(t, err)
	assert.Equal(t, old, res)
}

func TestReprobeClassifier(t *testing.T) {
	t.Parallel()

	fail := true
	backend := &test.FakeBackend{Probs: []float64{1, 0}}
	provider := classifier.NewLazyProvider("test", func(ctx context.Context) (classifier.Backend, error) {
		if fail {
			return nil, errors.New("not yet")
		}
		return backend, nil
	})

	// The first failure is remembered
	_, err := provider.Acquire(context.Background())
	assert.ErrorIs(t, err, classifier.ErrBackendUnavailable)
	fail = false
	_, err = provider.Acquire(context.Background())
	assert.ErrorIs(t, err, classifier.ErrBackendUnavailable)
	assert.False(t, provider.Loaded())

	ReprobeClassifier(provider)
	assert.True(t, provider.Loaded())

	b, err := provider.Acquire(context.Background())
	assert.NoError(t, err)
	assert.Same(t, backend, b)
}
