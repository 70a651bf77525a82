package api

import (
	"log"
	"net/http"

	"github.com/safetyserv/safetyserv/metrics"
	"github.com/safetyserv/safetyserv/queue"
	"github.com/safetyserv/safetyserv/safety"
	"github.com/safetyserv/safetyserv/storage"
)

type Config struct {
	// Optional. If empty, the safetyserv API will be disabled.
	ApiKey string
}

type Api struct {
	storage   storage.PersistentStorage
	pool      *queue.Pool
	evaluator *safety.Evaluator
	apiKey    string
}

func NewApi(config *Config, db storage.PersistentStorage, pool *queue.Pool, evaluator *safety.Evaluator) (*Api, error) {
	return &Api{
		storage:   db,
		pool:      pool,
		evaluator: evaluator,
		apiKey:    config.ApiKey,
	}, nil
}

func (a *Api) httpRequestHandler(upstream func(api *Api, w http.ResponseWriter, r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstream(a, w, r)
	})
}

func (a *Api) httpAuthenticatedRequestHandler(upstream func(api *Api, w http.ResponseWriter, r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer "+a.apiKey {
			if auth == "" {
				metrics.RecordUnauthorized("missing")
			} else {
				metrics.RecordUnauthorized("wrong")
			}
			defer metrics.RecordHttpResponse(r.Method, "httpAuthenticatedRequestHandler", http.StatusUnauthorized)
			httpError(w, http.StatusUnauthorized, "SS_UNAUTHORIZED", "Not allowed")
			return
		}

		upstream(a, w, r)
	})
}

func (a *Api) BindTo(mux *http.ServeMux) error {
	mux.Handle("/", a.httpRequestHandler(httpCatchAll))
	mux.Handle("/health", a.httpRequestHandler(httpHealth))
	mux.Handle("/ready", a.httpRequestHandler(httpReady))

	if a.apiKey != "" {
		log.Println("Enabling safetyserv API")
		mux.Handle("/api/v1/status", a.httpAuthenticatedRequestHandler(httpStatusApi))
		mux.Handle("/api/v1/evaluate", a.httpAuthenticatedRequestHandler(httpEvaluateApi))
		mux.Handle("/api/v1/evaluate/batch", a.httpAuthenticatedRequestHandler(httpEvaluateBatchApi))
		mux.Handle("/api/v1/evaluations/{id}", a.httpAuthenticatedRequestHandler(httpGetEvaluationApi))
		mux.Handle("/api/v1/guard/validate", a.httpAuthenticatedRequestHandler(httpGuardValidateApi))
	}

	return nil
}
