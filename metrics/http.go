package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_http_requests",
	Help: "The total number of HTTP requests, by handler",
}, []string{"method", "action"})

var HttpResponses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_http_responses",
	Help: "The total number of HTTP responses, by handler and status",
}, []string{"method", "action", "status"})

var HttpUnauthorized = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_http_unauthorized",
	Help: "The total number of API requests rejected for a missing or wrong API key",
}, []string{"reason"})

var BatchPairs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "safetyserv_batch_pairs",
	Help:    "The number of (request, response) pairs per accepted batch evaluation",
	Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
})

func RecordHttpRequest(method string, action string) {
	HttpRequests.With(prometheus.Labels{
		"method": method,
		"action": action,
	}).Inc()
}

func RecordHttpResponse(method string, action string, status int) {
	HttpResponses.With(prometheus.Labels{
		"method": method,
		"action": action,
		"status": strconv.Itoa(status),
	}).Inc()
}

// RecordUnauthorized - reason is "missing" when no bearer token was sent, "wrong" otherwise.
func RecordUnauthorized(reason string) {
	HttpUnauthorized.With(prometheus.Labels{
		"reason": reason,
	}).Inc()
}

func RecordBatchSize(pairs int) {
	BatchPairs.Observe(float64(pairs))
}
