package main

import (
	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/queue"
	"github.com/safetyserv/safetyserv/safety"
	"github.com/safetyserv/safetyserv/storage"
)

func setupQueue(instanceConfig *config.InstanceConfig, db storage.PersistentStorage, evaluator *safety.Evaluator) (*queue.Pool, error) {
	poolConfig := &queue.PoolConfig{
		ConcurrentPools: 10,
		SizePerPool:     instanceConfig.ProcessingPoolSize / 10,
	}
	return queue.NewPool(poolConfig, evaluator, db)
}
