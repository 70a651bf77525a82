package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var EvaluationTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "safetyserv_evaluation_time_seconds",
	Help: "The time spent producing a safety evaluation",
}, []string{"strategy"})

var BackendTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "safetyserv_backend_time_seconds",
	Help: "The time spent in each classifier backend call",
}, []string{"backend"})

var RequestTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "safetyserv_request_time_seconds",
	Help: "The time spent in each request",
}, []string{"method", "action"})

var QueueWaitTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "safetyserv_queue_wait_time_seconds",
	Help: "The time spent waiting in the queue",
}, []string{"waitedUntil"})

func StartBackendTimer(backend string) *prometheus.Timer {
	return prometheus.NewTimer(BackendTime.With(prometheus.Labels{
		"backend": backend,
	}))
}

func ObserveEvaluationTime(strategy string, seconds float64) {
	EvaluationTime.With(prometheus.Labels{
		"strategy": strategy,
	}).Observe(seconds)
}

func StartRequestTimer(method string, action string) *prometheus.Timer {
	return prometheus.NewTimer(RequestTime.With(prometheus.Labels{
		"method": method,
		"action": action,
	}))
}

func StartQueueTimer() *prometheus.Timer {
	return prometheus.NewTimer(QueueWaitTime.With(prometheus.Labels{
		"waitedUntil": "UNSET",
	}))
}
