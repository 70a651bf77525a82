package guard

import (
	"fmt"

	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/internal"
	"github.com/safetyserv/safetyserv/safety"
)

// NewFromConfig - builds a guard with the validators enabled by the config, toxicity checks first.
func NewFromConfig(cnf *config.GuardConfig, evaluator *safety.Evaluator) (*Guard, error) {
	g := New()
	if internal.DereferenceOr(cnf.ToxicLanguageEnabled, true) {
		method := ValidationMethod(internal.DereferenceOr(cnf.ToxicLanguageMethod, string(MethodSentence)))
		if method != MethodSentence && method != MethodFull {
			return nil, fmt.Errorf("unsupported toxic language validation method '%s'", method)
		}
		g.UseMany(&ToxicLanguage{
			Evaluator: evaluator,
			Threshold: internal.DereferenceOr(cnf.ToxicLanguageThreshold, DefaultToxicThreshold),
			Method:    method,
		})
	}
	if internal.DereferenceOr(cnf.CompetitorCheckEnabled, true) {
		g.UseMany(&CompetitorCheck{
			Competitors: internal.DereferenceOr(cnf.Competitors, DefaultCompetitors),
		})
	}
	return g, nil
}
