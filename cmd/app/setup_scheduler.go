package main

import (
	"crypto/rand"
	"log"
	"math/big"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/storage"
	"github.com/safetyserv/safetyserv/tasks"
)

func setupScheduler(scheduler gocron.Scheduler, db storage.PersistentStorage, provider classifier.Provider, instanceConfig *config.InstanceConfig) error {
	if err := schedulePruneTask(scheduler, db, instanceConfig); err != nil {
		return err
	}
	if err := scheduleReprobeTask(scheduler, provider, instanceConfig); err != nil {
		return err
	}
	return nil
}

func schedulePruneTask(scheduler gocron.Scheduler, db storage.PersistentStorage, instanceConfig *config.InstanceConfig) error {
	if instanceConfig.RetentionDays <= 0 {
		log.Println("SS_RETENTION_DAYS is not positive: evaluations will be kept forever")
		return nil
	}

	// We schedule this to run every hour +/- 10 minutes to avoid overlapping deletes from other processes.
	pruneTask, err := scheduler.NewJob(gocron.DurationRandomJob(50*time.Minute, 70*time.Minute), gocron.NewTask(tasks.PruneEvaluations, db, instanceConfig), gocron.WithName("PruneEvaluations"))
	if err != nil {
		return err
	}

	log.Printf("Scheduled evaluation pruning task every hour: %s", pruneTask.ID())
	runTaskNowish(pruneTask)

	return nil
}

func scheduleReprobeTask(scheduler gocron.Scheduler, provider classifier.Provider, instanceConfig *config.InstanceConfig) error {
	reprober, ok := provider.(tasks.Reprober)
	if !ok {
		log.Println("Classifier provider cannot be re-probed: no re-probe task scheduled")
		return nil
	}
	if instanceConfig.ClassifierReprobeMinutes <= 0 {
		log.Println("SS_CLASSIFIER_REPROBE_MINUTES is not positive: a failed classifier backend stays failed until restart")
		return nil
	}

	// We do the math in seconds to get a slightly more accurate number (10% of 1 minute is 6 seconds, but if we did our
	// math in minutes then we'd end up with a range of 1 minute).
	variance := time.Duration(float64(instanceConfig.ClassifierReprobeMinutes*60)*0.1) * time.Second
	minMinutes := (time.Duration(instanceConfig.ClassifierReprobeMinutes) * time.Minute) - variance
	maxMinutes := (time.Duration(instanceConfig.ClassifierReprobeMinutes) * time.Minute) + variance

	// "should never happen" clauses
	if minMinutes < 0 {
		minMinutes = 1 * time.Minute
	}
	if maxMinutes < minMinutes {
		maxMinutes = minMinutes + time.Minute
	}

	reprobeTask, err := scheduler.NewJob(gocron.DurationRandomJob(minMinutes, maxMinutes), gocron.NewTask(tasks.ReprobeClassifier, reprober), gocron.WithName("ReprobeClassifier"))
	if err != nil {
		return err
	}

	// Not run immediately: the first evaluation loads the backend anyway.
	log.Printf("Scheduled classifier re-probe task every ~%d minutes: %s", instanceConfig.ClassifierReprobeMinutes, reprobeTask.ID())

	return nil
}

// runTaskNowish - Runs a gocron task as quickly as possible, with a small delay to avoid overlapping calls. The task will
// wait asynchronously to run, so this will return immediately regardless of whether the task is running.
func runTaskNowish(task gocron.Job) {
	go func() {
		// we don't *need* a cryptographic random number here, but security audits might complain if we don't
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			log.Printf("Non-fatal error generating jitter for task %s: %v", task.ID(), err)
			n = big.NewInt(4) // https://xkcd.com/221
		}
		<-time.After(time.Duration(n.Int64()) * time.Second)
		if err = task.RunNow(); err != nil {
			log.Printf("Non-fatal error trying to run task %s immediately: %v", task.ID(), err)
		}
	}()
}
