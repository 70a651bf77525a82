package main

import (
	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/safety"
)

func setupEvaluator(instanceConfig *config.InstanceConfig) (classifier.Provider, *safety.Evaluator, error) {
	evaluator, provider, err := safety.NewEvaluatorFromConfig(instanceConfig)
	return provider, evaluator, err
}
