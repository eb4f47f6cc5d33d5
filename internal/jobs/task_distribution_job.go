package jobs

import (
	"context"
	"log/slog"

	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/pkg/telemetry"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// distributor is the part of DistributePendingTasksCommandHandler the job needs.
type distributor interface {
	Handle(ctx context.Context, cmd commands.DistributePendingTasksCommand) (commands.DistributionResult, error)
}

// TaskDistributionJob hands pending tasks to idle florists on shift.
type TaskDistributionJob struct {
	handler  distributor
	schedule string
	metrics  *telemetry.Metrics
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewTaskDistributionJob creates a job that runs a distribution round on the
// given six-field cron schedule (seconds first). metrics may be nil.
func NewTaskDistributionJob(
	handler distributor,
	schedule string,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *TaskDistributionJob {
	return &TaskDistributionJob{
		handler:  handler,
		schedule: schedule,
		metrics:  metrics,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "task_distribution_job"),
	}
}

// Start registers the round with cron and starts the scheduler.
// It returns an error for an unparsable schedule.
func (j *TaskDistributionJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Task distribution job started", "schedule", j.schedule)
	return nil
}

// RunOnce performs a single distribution round.
func (j *TaskDistributionJob) RunOnce(ctx context.Context) (commands.DistributionResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "jobs.distribute_pending_tasks")
	defer span.End()

	result, err := j.handler.Handle(ctx, commands.NewDistributePendingTasksCommand())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		j.logger.ErrorContext(ctx, "Task distribution failed", "error", err)
		return result, err
	}

	span.SetAttributes(
		attribute.Int("tasks.distributed", result.Distributed),
		attribute.Int("tasks.remaining", result.Remaining),
	)
	if j.metrics != nil {
		j.metrics.RecordAssignments(ctx, "distribution", result.Distributed)
	}
	if result.Distributed > 0 || result.Skipped > 0 {
		j.logger.InfoContext(ctx, "Tasks distributed",
			"distributed", result.Distributed, "skipped", result.Skipped, "remaining", result.Remaining)
	}
	return result, nil
}

// Stop stops the scheduler and waits for a running round to finish.
func (j *TaskDistributionJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Task distribution job stopped")
}
