package main

import (
	"github.com/safetyserv/safetyserv/api"
	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/queue"
	"github.com/safetyserv/safetyserv/safety"
	"github.com/safetyserv/safetyserv/storage"
)

func setupApi(instanceConfig *config.InstanceConfig, db storage.PersistentStorage, pool *queue.Pool, evaluator *safety.Evaluator) (*api.Api, error) {
	apiConfig := &api.Config{
		ApiKey: instanceConfig.ApiKey,
	}
	return api.NewApi(apiConfig, db, pool, evaluator)
}
