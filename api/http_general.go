package api

import (
	"log"
	"net/http"

	"github.com/safetyserv/safetyserv/metrics"
	"github.com/safetyserv/safetyserv/version"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func httpHealth(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpHealth")
	t := metrics.StartRequestTimer(r.Method, "httpHealth")
	defer t.ObserveDuration()

	errs := newErrorResponder("httpHealth", w, r)
	err := respondJson("httpHealth", r, w, &healthResponse{
		Status:  "ok",
		Version: version.Short(),
	})
	if err != nil {
		errs.err(http.StatusInternalServerError, "SS_UNKNOWN", err)
		return
	}
}

// httpReady - always ready once serving: the keyword fallback can answer every evaluation even while the
// classifier backend is unavailable. Backend state is reported by /api/v1/status instead.
func httpReady(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpReady")
	t := metrics.StartRequestTimer(r.Method, "httpReady")
	defer t.ObserveDuration()

	defer metrics.RecordHttpResponse(r.Method, "httpReady", http.StatusOK)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func httpCatchAll(api *Api, w http.ResponseWriter, r *http.Request) {
	metrics.RecordHttpRequest(r.Method, "httpCatchAll")
	t := metrics.StartRequestTimer(r.Method, "httpCatchAll")
	defer t.ObserveDuration()

	// Blackbox exporters probe the root
	if r.URL.Path == "/" {
		defer metrics.RecordHttpResponse(r.Method, "httpCatchAll", http.StatusOK)
		_, _ = w.Write([]byte("safetyserv"))
		return
	}

	log.Printf("[%s | api] Unhandled request: %s", r.Method, r.URL.Path)

	defer metrics.RecordHttpResponse(r.Method, "httpCatchAll", http.StatusNotFound)
	httpError(w, http.StatusNotFound, "SS_UNRECOGNIZED", "not implemented")
}
