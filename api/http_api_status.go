package api

import (
	"context"
	"net/http"
	"time"

	"github.com/safetyserv/safetyserv/metrics"
)

type statusResponse struct {
	ClassifierAvailable bool   `json:"classifier_available"`
	Backend             string `json:"backend,omitempty"`
	FallbackReason      string `json:"fallback_reason,omitempty"`
}

func httpStatusApi(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpStatusApi")
	t := metrics.StartRequestTimer(r.Method, "httpStatusApi")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpStatusApi", w, r)

	if r.Method != http.MethodGet {
		errs.text(http.StatusMethodNotAllowed, "SS_UNRECOGNIZED", "Method not allowed")
		return
	}

	// Loading a backend for the first time can be slow; don't hold the caller hostage to it.
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res := &statusResponse{}
	probe := api.evaluator.Probe(ctx)
	if probe.Available() {
		res.ClassifierAvailable = true
		res.Backend = probe.Handle.Name()
	} else {
		res.FallbackReason = probe.Err.Error()
	}

	err := respondJson("httpStatusApi", r, w, res)
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
}
