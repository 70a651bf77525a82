package queue

import (
	"context"
	"errors"
	"log"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/safetyserv/safetyserv/internal"
	"github.com/safetyserv/safetyserv/metrics"
	"github.com/safetyserv/safetyserv/metrics/dbmetrics"
	"github.com/safetyserv/safetyserv/safety"
	"github.com/safetyserv/safetyserv/storage"
	typedsf "github.com/t2bot/go-typed-singleflight"
)

// recentTtl - how long a classifier result stays in the in-memory cache before storage is consulted again.
const recentTtl = 5 * time.Minute

type PoolResult struct {
	// Nil if there was an error. Otherwise, the record of the evaluation (see Persisted).
	Evaluation *storage.StoredEvaluation

	// Nil if there was an error. Keyword signals and fallback reasons are only present when the pair was
	// evaluated for this submission rather than served from an earlier evaluation.
	Result *safety.Result

	// False when the evaluation could not be saved. The verdict still stands, but Evaluation.Id is empty.
	Persisted bool

	// The error processing the request, if any.
	Err error
}

type sfResult struct {
	firstTimeSeen bool
	persisted     bool
	evaluation    *storage.StoredEvaluation
	result        *safety.Result
}

type PoolConfig struct {
	ConcurrentPools int
	SizePerPool     int
}

type Pool struct {
	evaluator *safety.Evaluator
	storage   storage.PersistentStorage
	internal  *ants.MultiPool
	sf        *typedsf.Group[*sfResult] // keyed by pair digest
	recent    *cache.Cache[string, *storage.StoredEvaluation]
}

func NewPool(config *PoolConfig, evaluator *safety.Evaluator, db storage.PersistentStorage) (*Pool, error) {
	internal, err := ants.NewMultiPool(max(config.ConcurrentPools, 1), max(config.SizePerPool, 1), ants.RoundRobin, ants.WithOptions(ants.Options{
		ExpiryDuration:   1 * time.Minute,
		PreAlloc:         false,
		MaxBlockingTasks: 0, // no limit on submissions
		Nonblocking:      false,
		// If we don't supply a panic handler then ants will print a stack trace for us
		Logger:       log.Default(),
		DisablePurge: false,
	}))
	if err != nil {
		return nil, err
	}
	return &Pool{
		evaluator: evaluator,
		storage:   db,
		internal:  internal,
		sf:        new(typedsf.Group[*sfResult]),
		recent:    cache.New[string, *storage.StoredEvaluation](cache.WithJanitorInterval[string, *storage.StoredEvaluation](1 * time.Minute)),
	}, nil
}

// Submit asks the queue to evaluate the given pair. If `waitCh` is non-nil, it will be called with the result upon
// completion or error. The `waitCh` is not called if there was a submission error - that is instead returned from
// Submit.
func (p *Pool) Submit(ctx context.Context, req *safety.Request, waitCh chan<- *PoolResult) error {
	t := metrics.StartQueueTimer()
	digest := internal.Digest(req.RequestText, req.ResponseText)
	logId := digest[:12]

	// Note: waitCh might be nil or unbuffered, so we spawn this in a goroutine later on.
	notifyResult := func(evaluation *storage.StoredEvaluation, result *safety.Result, persisted bool, err error) {
		if err == nil {
			t.ObserveDurationWithExemplar(prometheus.Labels{"waitedUntil": "result"})
		} else if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			t.ObserveDurationWithExemplar(prometheus.Labels{"waitedUntil": "timeout"})
		} else {
			t.ObserveDurationWithExemplar(prometheus.Labels{"waitedUntil": "error"})
		}

		if waitCh != nil {
			res := &PoolResult{
				Evaluation: evaluation,
				Result:     result,
				Persisted:  persisted,
				Err:        err,
			}

			// First, check to see if the channel is likely going to be closed already
			if err := ctx.Err(); err != nil {
				log.Printf("[%s | queue] Result channel closed, not sending result: %s", logId, err)
				return
			}

			// Consider the context in our delivery of the result
			select {
			case waitCh <- res:
			case <-ctx.Done():
				log.Printf("[%s | queue] Result channel closed, not sending result: %s", logId, ctx.Err())
			}
		}
	}

	workFn := func() {
		// If the context is cancelled, save CPU and don't bother evaluating
		if err := ctx.Err(); err != nil {
			metrics.RecordFailedSubmission()
			go notifyResult(nil, nil, false, err)
			log.Printf("[%s | queue] Not evaluating because context was cancelled/timed out", logId)
			return
		}

		// Ask the singleflight to do the work (deduplicating identical pairs)
		res, err, _ := p.sf.Do(digest, func() (*sfResult, error) {
			// We create a new context for two reasons:
			// 1. The singleflight might span multiple requests, and we don't want to tie results for all
			//    requests to the first (maybe failed) request.
			// 2. We want to ensure that we continue processing this stuff in the background, even if the
			//    request times out or is cancelled.
			evalCtx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()

			res, err := p.doEvaluate(evalCtx, req, digest, logId)

			// We do the metrics response within the singleflight so we don't count `firstTimeSeen` multiple times.
			if err != nil {
				defer metrics.RecordFailedSubmission()
			} else {
				defer metrics.RecordSuccessfulSubmission(res.firstTimeSeen)
			}
			return res, err
		})
		if err != nil {
			log.Printf("[%s | queue] Error evaluating: %s", logId, err)
		}
		if res == nil {
			if err == nil {
				// "should never happen"
				err = errors.New("nil result")
			}
			go notifyResult(nil, nil, false, err)
		} else {
			go notifyResult(res.evaluation, res.result, res.persisted, err)
		}
	}

	return p.internal.Submit(workFn)
}

// SubmitAndWait - Submit, then block until the result arrives or the context is done.
func (p *Pool) SubmitAndWait(ctx context.Context, req *safety.Request) *PoolResult {
	ch := make(chan *PoolResult, 1)
	if err := p.Submit(ctx, req, ch); err != nil {
		return &PoolResult{Err: err}
	}
	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return &PoolResult{Err: ctx.Err()}
	}
}

func (p *Pool) doEvaluate(ctx context.Context, req *safety.Request, digest string, logId string) (*sfResult, error) {
	// First, have we already scored this pair with a classifier? Keyword results are cheap and are always
	// recomputed, so a recovered backend takes over as soon as it's back.
	if evaluation, ok := p.recent.Get(digest); ok {
		dbmetrics.RecordEvaluationCacheRequest(true)
		return reusedResult(evaluation), nil
	}
	dbmetrics.RecordEvaluationCacheRequest(false)

	// Storage problems never cost the caller a verdict: a failed lookup just means we evaluate again.
	evaluation, err := p.storage.GetEvaluationByDigest(ctx, digest)
	if err != nil {
		log.Printf("[%s | queue] Non-fatal error looking up earlier evaluation: %s", logId, err)
	} else if evaluation != nil && evaluation.Strategy == string(safety.StrategyClassifier) {
		p.recent.Set(digest, evaluation, cache.WithExpiration(recentTtl))
		return reusedResult(evaluation), nil
	}

	result := p.evaluator.EvaluateRequest(ctx, req)

	// Persist results
	createdAt := time.Now()
	evaluation = &storage.StoredEvaluation{
		Id:              storage.NextIdAt(createdAt),
		Digest:          digest,
		RequestLength:   len(req.RequestText),
		ResponseLength:  len(req.ResponseText),
		HarmScore:       result.HarmScore,
		Verdict:         string(result.Verdict),
		Strategy:        string(result.Strategy),
		Backend:         result.Backend,
		CreatedAtMillis: createdAt.UnixMilli(),
	}
	persisted := true
	if err = p.storage.UpsertEvaluation(ctx, evaluation); err != nil {
		log.Printf("[%s | queue] Non-fatal error persisting evaluation, returning it unsaved: %s", logId, err)
		metrics.RecordPersistFailure()
		evaluation.Id = ""
		persisted = false
	} else if result.Strategy == safety.StrategyClassifier {
		p.recent.Set(digest, evaluation, cache.WithExpiration(recentTtl))
	}

	// Finally, return
	return &sfResult{
		firstTimeSeen: true,
		persisted:     persisted,
		evaluation:    evaluation,
		result:        result,
	}, nil
}

func reusedResult(evaluation *storage.StoredEvaluation) *sfResult {
	return &sfResult{
		firstTimeSeen: false,
		persisted:     true,
		evaluation:    evaluation,
		result:        ResultFromStored(evaluation),
	}
}

// ResultFromStored - rebuilds the verdict of a stored evaluation. Keyword signals are not stored.
func ResultFromStored(evaluation *storage.StoredEvaluation) *safety.Result {
	return &safety.Result{
		HarmScore: evaluation.HarmScore,
		Verdict:   safety.Verdict(evaluation.Verdict),
		Strategy:  safety.Strategy(evaluation.Strategy),
		Backend:   evaluation.Backend,
	}
}

func (p *Pool) Close() {
	_ = p.internal.ReleaseTimeout(5 * time.Second)
}
