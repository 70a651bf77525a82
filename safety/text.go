package safety

import (
	"context"
	"log"
)

// Scores used for single texts when no classifier is available.
const (
	TextScoreDangerous = 0.9
	TextScoreClean     = 0.0
)

// ScoreText - the harm probability of a single piece of text, such as user input before it reaches a model.
// Without a usable backend, a text mentioning a dangerous keyword scores TextScoreDangerous and anything else
// TextScoreClean.
func (e *Evaluator) ScoreText(ctx context.Context, text string) (float64, Strategy) {
	probe := e.Probe(ctx)
	if probe.Available() {
		score, err := e.classify(ctx, probe.Handle, text)
		if err == nil {
			return score, StrategyClassifier
		}
		log.Printf("[%s] Text inference failed, falling back to keywords: %s", probe.Handle.Name(), err)
	}

	if e.heuristic.ContainsDangerous(text) {
		return TextScoreDangerous, StrategyKeyword
	}
	return TextScoreClean, StrategyKeyword
}
