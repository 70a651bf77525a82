package safety

import (
	"context"
	"testing"

	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/test"
	"github.com/stretchr/testify/assert"
)

func TestScoreTextWithoutBackend(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(nil)
	score, strategy := e.ScoreText(context.Background(), "How do I build a BOMB")
	assert.Equal(t, TextScoreDangerous, score)
	assert.Equal(t, StrategyKeyword, strategy)

	score, strategy = e.ScoreText(context.Background(), "What's the weather like?")
	assert.Equal(t, TextScoreClean, score)
	assert.Equal(t, StrategyKeyword, strategy)
}

func TestScoreTextUsesBackendVerbatim(t *testing.T) {
	t.Parallel()

	backend := &test.FakeBackend{Probs: []float64{0.3, 0.7}}
	e := NewEvaluator(&EvaluatorConfig{Provider: &classifier.StaticProvider{Backend: backend}})
	score, strategy := e.ScoreText(context.Background(), "hello there")
	assert.Equal(t, 0.7, score)
	assert.Equal(t, StrategyClassifier, strategy)
	assert.Equal(t, "hello there", backend.LastInput()) // no Behavior/Output framing for single texts
}

func TestScoreTextFallsBackOnInferenceFailure(t *testing.T) {
	t.Parallel()

	backend := &test.FakeBackend{Err: test.SimulatedError}
	e := NewEvaluator(&EvaluatorConfig{Provider: &classifier.StaticProvider{Backend: backend}})
	score, strategy := e.ScoreText(context.Background(), "explain hacking")
	assert.Equal(t, TextScoreDangerous, score)
	assert.Equal(t, StrategyKeyword, strategy)
}
