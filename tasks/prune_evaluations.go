package tasks

import (
	"context"
	"log"
	"time"

	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/storage"
)

func PruneEvaluations(db storage.PersistentStorage, cnf *config.InstanceConfig) {
	if cnf.RetentionDays <= 0 {
		log.Println("Skipping evaluation pruning: retention is disabled")
		return // nothing to do
	}

	log.Printf("Pruning evaluations older than %d days...", cnf.RetentionDays)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	before := time.Now().Add(-time.Duration(cnf.RetentionDays) * 24 * time.Hour)
	count, err := db.PruneEvaluations(ctx, before.UnixMilli())
	if err != nil {
		log.Printf("Non-fatal error pruning evaluations: %v", err)
		return
	}

	log.Printf("Finished pruning evaluations: %d removed", count)
}
