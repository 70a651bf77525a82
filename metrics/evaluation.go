package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_evaluations",
	Help: "The total number of safety evaluations, by scoring strategy and verdict",
}, []string{"strategy", "verdict"})

var BackendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_backend_failures",
	Help: "The total number of classifier backend failures that caused a keyword fallback",
}, []string{"kind"})

var GuardValidations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_guard_validations",
	Help: "The total number of guard validations, by validator and outcome",
}, []string{"validator", "passed"})

var PoolSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetyserv_pool_submissions",
	Help: "The total number of evaluations submitted to the processing pool",
}, []string{"status", "isFirstTime"})

func RecordEvaluation(strategy string, verdict string) {
	Evaluations.With(prometheus.Labels{
		"strategy": strategy,
		"verdict":  verdict,
	}).Inc()
}

func RecordBackendFailure(kind string) {
	BackendFailures.With(prometheus.Labels{
		"kind": kind,
	}).Inc()
}

func RecordGuardValidation(validator string, passed bool) {
	p := "false"
	if passed {
		p = "true"
	}
	GuardValidations.With(prometheus.Labels{
		"validator": validator,
		"passed":    p,
	}).Inc()
}

func RecordFailedSubmission() {
	PoolSubmissions.With(prometheus.Labels{
		"status":      "error",
		"isFirstTime": "false",
	}).Inc()
}

func RecordSuccessfulSubmission(isFirstTime bool) {
	first := "false"
	if isFirstTime {
		first = "true"
	}
	PoolSubmissions.With(prometheus.Labels{
		"status":      "ok",
		"isFirstTime": first,
	}).Inc()
}

var PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "safetyserv_persist_failures",
	Help: "The total number of evaluations returned to the caller without being saved",
})

func RecordPersistFailure() {
	PersistFailures.Inc()
}
