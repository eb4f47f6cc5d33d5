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

// escalator is the part of CheckAndUpdateOverdueTasksCommandHandler the job needs.
type escalator interface {
	Handle(ctx context.Context, cmd commands.CheckAndUpdateOverdueTasksCommand) (int, error)
}

// OverdueEscalationJob raises unfinished tasks past their deadline to urgent.
type OverdueEscalationJob struct {
	handler  escalator
	schedule string
	metrics  *telemetry.Metrics
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewOverdueEscalationJob creates a job that escalates overdue tasks on the
// given six-field cron schedule. metrics may be nil.
func NewOverdueEscalationJob(
	handler escalator,
	schedule string,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *OverdueEscalationJob {
	return &OverdueEscalationJob{
		handler:  handler,
		schedule: schedule,
		metrics:  metrics,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "overdue_escalation_job"),
	}
}

// Start begins the escalation job.
func (j *OverdueEscalationJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Overdue escalation job started", "schedule", j.schedule)
	return nil
}

// RunOnce performs a single escalation pass and returns how many tasks
// were raised to urgent.
func (j *OverdueEscalationJob) RunOnce(ctx context.Context) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "jobs.check_overdue_tasks")
	defer span.End()

	escalated, err := j.handler.Handle(ctx, commands.NewCheckAndUpdateOverdueTasksCommand())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		j.logger.ErrorContext(ctx, "Overdue escalation failed", "error", err)
		return 0, err
	}

	span.SetAttributes(attribute.Int("tasks.escalated", escalated))
	if j.metrics != nil {
		j.metrics.RecordEscalations(ctx, escalated)
	}
	if escalated > 0 {
		j.logger.InfoContext(ctx, "Overdue tasks escalated", "count", escalated)
	}
	return escalated, nil
}

// Stop stops the escalation job and waits for a running pass.
func (j *OverdueEscalationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Overdue escalation job stopped")
}
