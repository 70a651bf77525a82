package logging

import "log"

type CronLogger struct {
	// Implements gocron.Logger
}

func (c *CronLogger) Debug(msg string, args ...any) {
	log.Printf("[cron] [DEBUG] "+msg, args...)
}

func (c *CronLogger) Error(msg string, args ...any) {
	log.Printf("[cron] [ERROR] "+msg, args...)
}

func (c *CronLogger) Info(msg string, args ...any) {
	log.Printf("[cron] [INFO] "+msg, args...)
}

func (c *CronLogger) Warn(msg string, args ...any) {
	log.Printf("[cron] [WARN] "+msg, args...)
}
