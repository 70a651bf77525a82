package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/safetyserv/safetyserv/metrics"
	"github.com/safetyserv/safetyserv/queue"
	"github.com/safetyserv/safetyserv/safety"
)

// maxBatchSize - the most pairs a single batch request may contain.
const maxBatchSize = 100

const evaluateTimeout = 30 * time.Second

type evaluationResponse struct {
	// Empty when the evaluation could not be saved.
	Id string `json:"id,omitempty"`
	*safety.Result
	CreatedAtMillis int64 `json:"created_at"`
}

type batchRequest struct {
	Pairs []*safety.Request `json:"pairs"`
}

type batchItemResponse struct {
	*evaluationResponse
	Error string `json:"error,omitempty"`
}

type batchResponse struct {
	Results []*batchItemResponse `json:"results"`
}

func toEvaluationResponse(res *queue.PoolResult) *evaluationResponse {
	return &evaluationResponse{
		Id:              res.Evaluation.Id,
		Result:          res.Result,
		CreatedAtMillis: res.Evaluation.CreatedAtMillis,
	}
}

func httpEvaluateApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpEvaluateApi")
	t := metrics.StartRequestTimer(r.Method, "httpEvaluateApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpEvaluateApi", w, r)

	if r.Method != http.MethodPost {
		errs.text(http.StatusMethodNotAllowed, "SS_UNRECOGNIZED", "Method not allowed")
		return
	}

	req := &safety.Request{}
	err := parseJsonBody(req, r.Body)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			errs.text(http.StatusRequestEntityTooLarge, "SS_TOO_LARGE", "Request body too large")
		} else {
			errs.text(http.StatusBadRequest, "SS_BAD_JSON", "Invalid JSON")
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
	defer cancel()
	res := api.pool.SubmitAndWait(ctx, req)
	if res.Err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", res.Err)
		return
	}

	err = respondJson("httpEvaluateApi", r, w, toEvaluationResponse(res))
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
}

func httpEvaluateBatchApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpEvaluateBatchApi")
	t := metrics.StartRequestTimer(r.Method, "httpEvaluateBatchApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpEvaluateBatchApi", w, r)

	if r.Method != http.MethodPost {
		errs.text(http.StatusMethodNotAllowed, "SS_UNRECOGNIZED", "Method not allowed")
		return
	}

	req := &batchRequest{}
	err := parseJsonBody(req, r.Body)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			errs.text(http.StatusRequestEntityTooLarge, "SS_TOO_LARGE", "Request body too large")
		} else {
			errs.text(http.StatusBadRequest, "SS_BAD_JSON", "Invalid JSON")
		}
		return
	}
	if len(req.Pairs) == 0 {
		errs.text(http.StatusBadRequest, "SS_INVALID_PARAM", "No pairs given")
		return
	}
	if len(req.Pairs) > maxBatchSize {
		errs.text(http.StatusBadRequest, "SS_INVALID_PARAM", fmt.Sprintf("Too many pairs: the limit is %d", maxBatchSize))
		return
	}
	for _, pair := range req.Pairs {
		if pair == nil {
			errs.text(http.StatusBadRequest, "SS_INVALID_PARAM", "Pairs cannot be null")
			return
		}
	}

	metrics.RecordBatchSize(len(req.Pairs))

	ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
	defer cancel()

	// Submit everything first so the pool works on the pairs in parallel, then collect in order.
	channels := make([]chan *queue.PoolResult, len(req.Pairs))
	for i, pair := range req.Pairs {
		channels[i] = make(chan *queue.PoolResult, 1)
		if err = api.pool.Submit(ctx, pair, channels[i]); err != nil {
			errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
			return
		}
	}

	res := &batchResponse{Results: make([]*batchItemResponse, len(req.Pairs))}
	for i, ch := range channels {
		var poolResult *queue.PoolResult
		select {
		case poolResult = <-ch:
		case <-ctx.Done():
			poolResult = &queue.PoolResult{Err: ctx.Err()}
		}
		if poolResult.Err != nil {
			res.Results[i] = &batchItemResponse{Error: "Evaluation failed"}
			continue
		}
		res.Results[i] = &batchItemResponse{evaluationResponse: toEvaluationResponse(poolResult)}
	}

	err = respondJson("httpEvaluateBatchApi", r, w, res)
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
}

func httpGetEvaluationApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpGetEvaluationApi")
	t := metrics.StartRequestTimer(r.Method, "httpGetEvaluationApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpGetEvaluationApi", w, r)

	if r.Method != http.MethodGet {
		errs.text(http.StatusMethodNotAllowed, "SS_UNRECOGNIZED", "Method not allowed")
		return
	}

	id := r.PathValue("id")
	evaluation, err := api.storage.GetEvaluation(r.Context(), id)
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
	if evaluation == nil {
		errs.text(http.StatusNotFound, "SS_NOT_FOUND", "Evaluation not found")
		return
	}

	err = respondJson("httpGetEvaluationApi", r, w, evaluation)
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
}
