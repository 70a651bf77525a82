package dbmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var EvaluationCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_evaluation_cache_requests",
	Help: "The total number of evaluation result cache requests",
}, []string{"isHit"})

var EmbeddingCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_embedding_cache_requests",
	Help: "The total number of query embedding cache requests",
}, []string{"collection", "isHit"})

var SelfDatabaseRequestTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "safetyserv_self_database_request_time_seconds",
	Help: "The time spent in the self database",
}, []string{"query"})

func RecordEvaluationCacheRequest(isHit bool) {
	EvaluationCacheRequests.With(prometheus.Labels{
		"isHit": strconv.FormatBool(isHit),
	}).Inc()
}

func RecordEmbeddingCacheRequest(collection string, isHit bool) {
	EmbeddingCacheRequests.With(prometheus.Labels{
		"collection": collection,
		"isHit":      strconv.FormatBool(isHit),
	}).Inc()
}

func StartSelfDatabaseTimer(query string) *prometheus.Timer {
	return prometheus.NewTimer(SelfDatabaseRequestTime.With(prometheus.Labels{
		"query": query,
	}))
}
