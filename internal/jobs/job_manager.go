package jobs

import (
	"fmt"
)

// JobManager starts and stops the scheduled jobs together.
type JobManager struct {
	distribution *TaskDistributionJob
	escalation   *OverdueEscalationJob
}

// NewJobManager groups the scheduled jobs of the service.
func NewJobManager(distribution *TaskDistributionJob, escalation *OverdueEscalationJob) *JobManager {
	return &JobManager{
		distribution: distribution,
		escalation:   escalation,
	}
}

// StartAll starts every job. If one fails to start, the ones already running
// are stopped.
func (jm *JobManager) StartAll() error {
	if err := jm.escalation.Start(); err != nil {
		return fmt.Errorf("failed to start overdue escalation job: %w", err)
	}

	if err := jm.distribution.Start(); err != nil {
		jm.escalation.Stop()
		return fmt.Errorf("failed to start task distribution job: %w", err)
	}

	return nil
}

// StopAll waits for running rounds to finish.
func (jm *JobManager) StopAll() {
	jm.distribution.Stop()
	jm.escalation.Stop()
}
