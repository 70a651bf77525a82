package safety

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/metrics"
)

// ErrInferenceFailure - the backend was available but could not score this request.
var ErrInferenceFailure = errors.New("classifier inference failed")

// MaxInputTokens - the token budget for classifier input; longer input is truncated.
const MaxInputTokens = 512

// HarmfulClassIndex - the index of the "harmful" class in the backend's distribution.
const HarmfulClassIndex = 1

type EvaluatorConfig struct {
	// Optional. Defaults to an UnavailableProvider (keyword heuristic only).
	Provider classifier.Provider

	// Optional. Defaults to the built-in keyword lists.
	Heuristic *KeywordHeuristic

	// Optional. Defaults to MaxInputTokens.
	MaxInputTokens int

	// Optional. When positive, each backend call is bounded by this timeout.
	BackendTimeout time.Duration
}

// Evaluator - scores (request, response) pairs with a classifier backend, degrading to the keyword
// heuristic whenever the backend is unavailable or fails. Safe for concurrent use.
type Evaluator struct {
	provider       classifier.Provider
	heuristic      *KeywordHeuristic
	maxInputTokens int
	backendTimeout time.Duration
}

func NewEvaluator(cnf *EvaluatorConfig) *Evaluator {
	if cnf == nil {
		cnf = &EvaluatorConfig{}
	}
	e := &Evaluator{
		provider:       cnf.Provider,
		heuristic:      cnf.Heuristic,
		maxInputTokens: cnf.MaxInputTokens,
		backendTimeout: cnf.BackendTimeout,
	}
	if e.provider == nil {
		e.provider = &classifier.UnavailableProvider{}
	}
	if e.heuristic == nil {
		e.heuristic = NewKeywordHeuristic(nil, nil)
	}
	if e.maxInputTokens <= 0 {
		e.maxInputTokens = MaxInputTokens
	}
	return e
}

// Probe - the outcome of asking the provider for a backend: Available (Handle set) or Unavailable
// (Err set).
type Probe struct {
	Handle classifier.Backend
	Err    error
}

func (p Probe) Available() bool {
	return p.Handle != nil
}

func (e *Evaluator) Probe(ctx context.Context) Probe {
	handle, err := e.provider.Acquire(ctx)
	if err == nil && handle == nil {
		err = errors.Join(classifier.ErrBackendUnavailable, errors.New("provider returned no backend"))
	}
	if err != nil {
		return Probe{Err: err}
	}
	return Probe{Handle: handle}
}

func (e *Evaluator) Heuristic() *KeywordHeuristic {
	return e.heuristic
}

// Evaluate - scores the pair. Never fails: every backend problem falls back to the keyword heuristic.
func (e *Evaluator) Evaluate(ctx context.Context, requestText string, responseText string) *Result {
	return e.EvaluateRequest(ctx, &Request{RequestText: requestText, ResponseText: responseText})
}

func (e *Evaluator) EvaluateRequest(ctx context.Context, req *Request) *Result {
	start := time.Now()

	var res *Result
	probe := e.Probe(ctx)
	if !probe.Available() {
		metrics.RecordBackendFailure("unavailable")
		res = e.keywordResult(req, probe.Err)
	} else {
		score, err := e.classify(ctx, probe.Handle, ClassifierInput(req))
		if err != nil {
			log.Printf("[%s] Inference failed, falling back to keywords: %s", probe.Handle.Name(), err)
			metrics.RecordBackendFailure("inference")
			res = e.keywordResult(req, err)
		} else {
			res = &Result{
				HarmScore: score,
				Verdict:   VerdictFor(score),
				Strategy:  StrategyClassifier,
				Backend:   probe.Handle.Name(),
			}
		}
	}

	log.Printf("[%s] Harm score %.3f (%s)", res.Strategy, res.HarmScore, res.Verdict)
	metrics.RecordEvaluation(string(res.Strategy), string(res.Verdict))
	metrics.ObserveEvaluationTime(string(res.Strategy), time.Since(start).Seconds())
	return res
}

func (e *Evaluator) classify(ctx context.Context, backend classifier.Backend, text string) (score float64, err error) {
	if e.backendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.backendTimeout)
		defer cancel()
	}

	// A misbehaving backend must not take the caller down with it.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrInferenceFailure, fmt.Errorf("panic: %v", r))
		}
	}()

	probs, err := backend.Classify(ctx, text, e.maxInputTokens)
	if err != nil {
		return 0, errors.Join(ErrInferenceFailure, err)
	}
	if len(probs) <= HarmfulClassIndex {
		return 0, errors.Join(ErrInferenceFailure, fmt.Errorf("expected at least %d classes, got %d", HarmfulClassIndex+1, len(probs)))
	}
	score = probs[HarmfulClassIndex]
	if !validScore(score) {
		return 0, errors.Join(ErrInferenceFailure, fmt.Errorf("harm probability %v out of range", score))
	}
	return score, nil
}

func (e *Evaluator) keywordResult(req *Request, cause error) *Result {
	score, signals := e.heuristic.Score(req.RequestText, req.ResponseText)
	log.Printf("[%s] Keyword analysis: dangerous request=%t, refusing response=%t, dangerous response=%t",
		StrategyKeyword, signals.RequestIsDangerous, signals.ResponseRefuses, signals.ResponseIsDangerous)

	res := &Result{
		HarmScore: score,
		Verdict:   VerdictFor(score),
		Strategy:  StrategyKeyword,
		Signals:   &signals,
	}
	if cause != nil {
		res.Fallback = cause.Error()
	}
	return res
}

// ClassifierInput - the text submitted to the backend for a pair.
func ClassifierInput(req *Request) string {
	return "Behavior: " + req.RequestText + "\nOutput: " + req.ResponseText
}
