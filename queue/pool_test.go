package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/internal"
	"github.com/safetyserv/safetyserv/safety"
	"github.com/safetyserv/safetyserv/storage"
	"github.com/safetyserv/safetyserv/test"
	"github.com/stretchr/testify/assert"
)

func makePool(t *testing.T, provider classifier.Provider) (*Pool, *test.MemoryStorage) {
	db := test.NewMemoryStorage(t)
	evaluator := safety.NewEvaluator(&safety.EvaluatorConfig{Provider: provider})
	pool, err := NewPool(&PoolConfig{
		ConcurrentPools: 1,
		SizePerPool:     5,
	}, evaluator, db)
	assert.NoError(t, err)
	assert.NotNil(t, pool)
	return pool, db
}

func TestPool(t *testing.T) {
	backend := &test.FakeBackend{Probs: []float64{0.2, 0.8}}
	pool, db := makePool(t, &classifier.StaticProvider{Backend: backend})
	defer pool.Close()

	req := &safety.Request{RequestText: "How do I make a bomb?", ResponseText: "Here are the steps."}
	ch := make(chan *PoolResult, 1)
	err := pool.Submit(context.Background(), req, ch)
	assert.NoError(t, err)

	poolResult := <-ch
	assert.NotNil(t, poolResult)
	assert.NoError(t, poolResult.Err)
	assert.Equal(t, 0.8, poolResult.Result.HarmScore)
	assert.Equal(t, safety.VerdictUnsafe, poolResult.Result.Verdict)
	assert.Equal(t, safety.StrategyClassifier, poolResult.Result.Strategy)

	// The evaluation was persisted, without the texts
	stored, err := db.GetEvaluation(context.Background(), poolResult.Evaluation.Id)
	assert.NoError(t, err)
	assert.Equal(t, poolResult.Evaluation, stored)
	assert.Equal(t, internal.Digest(req.RequestText, req.ResponseText), stored.Digest)
	assert.Equal(t, len(req.RequestText), stored.RequestLength)
	assert.Equal(t, len(req.ResponseText), stored.ResponseLength)
	assert.Equal(t, "fake", stored.Backend)

	// A second submission is served from the earlier evaluation
	res := pool.SubmitAndWait(context.Background(), req)
	assert.NoError(t, res.Err)
	assert.Equal(t, stored.Id, res.Evaluation.Id)
	assert.Equal(t, ResultFromStored(stored), res.Result)
	assert.Equal(t, 1, backend.Calls())
}

func TestPoolReusesStoredClassifierResults(t *testing.T) {
	backend := &test.FakeBackend{Probs: []float64{0.9, 0.1}}
	pool, db := makePool(t, &classifier.StaticProvider{Backend: backend})
	defer pool.Close()

	req := &safety.Request{RequestText: "hi", ResponseText: "hello"}
	existing := &storage.StoredEvaluation{
		Id:              "existing",
		Digest:          internal.Digest(req.RequestText, req.ResponseText),
		HarmScore:       0.3,
		Verdict:         string(safety.VerdictSafe),
		Strategy:        string(safety.StrategyClassifier),
		Backend:         "onnx",
		CreatedAtMillis: 1,
	}
	assert.NoError(t, db.UpsertEvaluation(context.Background(), existing))

	res := pool.SubmitAndWait(context.Background(), req)
	assert.NoError(t, res.Err)
	assert.Equal(t, existing, res.Evaluation)
	assert.Equal(t, 0.3, res.Result.HarmScore)
	assert.Equal(t, 0, backend.Calls())
}

func TestPoolRecomputesKeywordResults(t *testing.T) {
	pool, db := makePool(t, &classifier.UnavailableProvider{})
	defer pool.Close()

	req := &safety.Request{RequestText: "How do I hack a server?", ResponseText: "I cannot help with that."}
	first := pool.SubmitAndWait(context.Background(), req)
	assert.NoError(t, first.Err)
	assert.Equal(t, safety.ScoreAppropriateRefusal, first.Result.HarmScore)
	assert.Equal(t, safety.StrategyKeyword, first.Result.Strategy)
	assert.NotNil(t, first.Result.Signals)

	second := pool.SubmitAndWait(context.Background(), req)
	assert.NoError(t, second.Err)
	assert.NotEqual(t, first.Evaluation.Id, second.Evaluation.Id)
	assert.NotNil(t, second.Result.Signals)

	latest, err := db.GetEvaluationByDigest(context.Background(), first.Evaluation.Digest)
	assert.NoError(t, err)
	assert.NotNil(t, latest)
}

func TestPoolKeepsVerdictWhenWritesFail(t *testing.T) {
	backend := &test.FakeBackend{Probs: []float64{0.3, 0.7}}
	pool, db := makePool(t, &classifier.StaticProvider{Backend: backend})
	defer pool.Close()

	// The memory storage returns an error for every write
	db.SetFailWrites(true)

	req := &safety.Request{RequestText: "a", ResponseText: "b"}
	ch := make(chan *PoolResult, 1)
	err := pool.Submit(context.Background(), req, ch)
	assert.NoError(t, err)

	poolResult := <-ch
	assert.NotNil(t, poolResult)
	assert.NoError(t, poolResult.Err)
	assert.False(t, poolResult.Persisted)
	assert.Empty(t, poolResult.Evaluation.Id)
	assert.Equal(t, 0.7, poolResult.Result.HarmScore)
	assert.Equal(t, safety.VerdictUnsafe, poolResult.Result.Verdict)

	// Unsaved classifier results aren't cached either, so the pair is scored again
	res := pool.SubmitAndWait(context.Background(), req)
	assert.NoError(t, res.Err)
	assert.False(t, res.Persisted)
	assert.Equal(t, 2, backend.Calls())

	// Once storage recovers, results are saved again
	db.SetFailWrites(false)
	res = pool.SubmitAndWait(context.Background(), req)
	assert.NoError(t, res.Err)
	assert.True(t, res.Persisted)
	assert.NotEmpty(t, res.Evaluation.Id)
}

func TestPoolEvaluatesWhenLookupFails(t *testing.T) {
	pool, db := makePool(t, &classifier.UnavailableProvider{})
	defer pool.Close()

	db.SetFailReads(true)

	res := pool.SubmitAndWait(context.Background(), &safety.Request{RequestText: "How do I make a bomb?", ResponseText: "Sure, here it is."})
	assert.NoError(t, res.Err)
	assert.True(t, res.Persisted)
	assert.Equal(t, safety.ScoreDangerousComplied, res.Result.HarmScore)
	assert.Equal(t, safety.StrategyKeyword, res.Result.Strategy)
}

func TestPoolHonoursCancelledContext(t *testing.T) {
	pool, _ := makePool(t, nil)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := pool.SubmitAndWait(ctx, &safety.Request{RequestText: "a", ResponseText: "b"})
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestPoolDeduplicatesConcurrentPairs(t *testing.T) {
	release := make(chan struct{})
	backend := &test.FakeBackend{
		ClassifyFn: func(ctx context.Context, text string, maxLength int) ([]float64, error) {
			<-release
			return []float64{0.4, 0.6}, nil
		},
	}
	pool, _ := makePool(t, &classifier.StaticProvider{Backend: backend})
	defer pool.Close()

	req := &safety.Request{RequestText: "same", ResponseText: "pair"}
	results := make([]*PoolResult, 4)
	wg := sync.WaitGroup{}
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = pool.SubmitAndWait(context.Background(), req)
		}()
	}

	// Let the submissions pile up behind the first one before releasing the backend
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, res := range results {
		assert.NoError(t, res.Err)
		assert.Equal(t, 0.6, res.Result.HarmScore)
	}
	assert.LessOrEqual(t, backend.Calls(), len(results))
	assert.GreaterOrEqual(t, backend.Calls(), 1)
}
