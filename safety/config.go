package safety

import (
	"errors"
	"log"

	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/config"
)

// NewEvaluatorFromConfig - builds an evaluator for the configured classifier backend, using the keyword
// lists file when one is configured. The provider is returned so callers can close or re-probe it.
func NewEvaluatorFromConfig(cnf *config.InstanceConfig) (*Evaluator, classifier.Provider, error) {
	heuristic := NewKeywordHeuristic(nil, nil)
	if cnf.KeywordsFile != "" {
		lists, err := config.LoadKeywordLists(cnf.KeywordsFile)
		if err != nil {
			return nil, nil, errors.Join(errors.New("failed to load keyword lists"), err)
		}
		log.Printf("Loaded %d dangerous keywords and %d refusal patterns from %s", len(lists.DangerousKeywords), len(lists.RefusalPatterns), cnf.KeywordsFile)
		heuristic = NewKeywordHeuristic(lists.DangerousKeywords, lists.RefusalPatterns)
	}

	provider := classifier.NewProviderFromConfig(cnf)
	evaluator := NewEvaluator(&EvaluatorConfig{
		Provider:  provider,
		Heuristic: heuristic,
	})
	return evaluator, provider, nil
}
