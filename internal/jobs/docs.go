// Package jobs runs the florist queue housekeeping on a schedule using
// github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. TaskDistributionJob gives every idle florist on shift the next pending task
// 2. OverdueEscalationJob raises unfinished tasks past their deadline to urgent
//
// # Usage
//
//	distribution := jobs.NewTaskDistributionJob(distributeHandler, "*/30 * * * * *", metrics, logger)
//	escalation := jobs.NewOverdueEscalationJob(overdueHandler, "0 * * * * *", metrics, logger)
//	jobManager := jobs.NewJobManager(distribution, escalation)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// Schedules use the six field cron format with seconds. RunOnce performs a
// single round outside the scheduler; the CLI uses it for one-shot runs.
//
// # Error Handling
//
// A failed round is logged and traced; the next round runs as scheduled.
// Escalation is idempotent, so a repeated round changes nothing.
package jobs
