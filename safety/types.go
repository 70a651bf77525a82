package safety

import "math"

// UnsafeThreshold - harm scores at or above this value are UNSAFE.
const UnsafeThreshold = 0.5

type Verdict string

const (
	VerdictSafe   Verdict = "SAFE"
	VerdictUnsafe Verdict = "UNSAFE"
)

// Strategy - which scoring path produced a Result.
type Strategy string

const (
	StrategyClassifier Strategy = "classifier"
	StrategyKeyword    Strategy = "keyword"
)

// Request - the (request, response) pair being judged.
type Request struct {
	RequestText  string `json:"request"`
	ResponseText string `json:"response"`
}

// KeywordSignals - the intermediate booleans of the keyword heuristic.
type KeywordSignals struct {
	RequestIsDangerous  bool `json:"request_is_dangerous"`
	ResponseRefuses     bool `json:"response_refuses"`
	ResponseIsDangerous bool `json:"response_is_dangerous"`
}

type Result struct {
	HarmScore float64  `json:"harm_score"`
	Verdict   Verdict  `json:"verdict"`
	Strategy  Strategy `json:"strategy"`

	// Backend is the classifier backend name when Strategy is StrategyClassifier.
	Backend string `json:"backend,omitempty"`

	// Signals is only set when Strategy is StrategyKeyword.
	Signals *KeywordSignals `json:"signals,omitempty"`

	// Fallback is why the classifier was not used, if it wasn't. Diagnostic only.
	Fallback string `json:"fallback,omitempty"`
}

// VerdictFor - UNSAFE iff score >= UnsafeThreshold.
func VerdictFor(score float64) Verdict {
	if score >= UnsafeThreshold {
		return VerdictUnsafe
	}
	return VerdictSafe
}

func (r *Result) IsUnsafe() bool {
	return r.Verdict == VerdictUnsafe
}

func validScore(score float64) bool {
	return !math.IsNaN(score) && score >= 0.0 && score <= 1.0
}
