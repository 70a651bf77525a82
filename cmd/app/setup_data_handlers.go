package main

import (
	"errors"

	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/storage"
)

func setupDataHandlers(instanceConfig *config.InstanceConfig) (storage.PersistentStorage, error) {
	dbConfig := &storage.PostgresStorageConfig{
		RWDatabase: &storage.PostgresStorageConnectionConfig{
			Uri:          instanceConfig.Database,
			MaxOpenConns: instanceConfig.DatabaseMaxOpenConns,
			MaxIdleConns: instanceConfig.DatabaseMaxIdleConns,
		},
		MigrationsPath: instanceConfig.DatabaseMigrationsDir,
	}
	if instanceConfig.DatabaseReadonlyUri != "" {
		dbConfig.RODatabase = &storage.PostgresStorageConnectionConfig{
			Uri:          instanceConfig.DatabaseReadonlyUri,
			MaxOpenConns: instanceConfig.DatabaseMaxOpenConns,
			MaxIdleConns: instanceConfig.DatabaseMaxIdleConns,
		}
	}
	psqlDb, err := storage.NewPostgresStorage(dbConfig)
	if err != nil {
		return nil, errors.Join(errors.New("NewPostgresStorage: failed create"), err)
	}
	return psqlDb, nil
}
