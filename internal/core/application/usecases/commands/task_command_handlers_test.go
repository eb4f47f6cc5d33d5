package commands_test

import (
	"testing"
	"time"

	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/services"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TaskCommandsSuite struct {
	suite.Suite
	f *fixture
}

func TestTaskCommandsSuite(t *testing.T) {
	suite.Run(t, new(TaskCommandsSuite))
}

func (s *TaskCommandsSuite) SetupTest() {
	s.f = newFixture(s.T())
}

// paidOrder creates a paid order with one pending bouquet task per call.
func (s *TaskCommandsSuite) paidOrder() *task.FloristTask {
	roses := s.f.product("Roses", "", 10)
	o := s.f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 1})
	s.f.mustTransition(o.ID(), order.Paid)
	tasks := s.f.tasks(o.ID())
	s.Require().Len(tasks, 1)
	return tasks[0]
}

func (s *TaskCommandsSuite) assign(taskID, floristID kernel.UUID) (*task.FloristTask, error) {
	cmd, err := commands.NewAssignTaskCommand(taskID, floristID, "manager")
	s.Require().NoError(err)
	return commands.NewAssignTaskCommandHandler(taskUoWFactory{s.f.store}, s.f.roster, s.f.notifier, s.f.logger).
		Handle(s.T().Context(), cmd)
}

func (s *TaskCommandsSuite) start(taskID kernel.UUID) (*task.FloristTask, error) {
	cmd, err := commands.NewStartTaskCommand(taskID, "florist")
	s.Require().NoError(err)
	return commands.NewStartTaskCommandHandler(taskUoWFactory{s.f.store}).Handle(s.T().Context(), cmd)
}

func (s *TaskCommandsSuite) complete(taskID kernel.UUID, minutes *int) (*task.FloristTask, error) {
	cmd, err := commands.NewCompleteTaskCommand(taskID, minutes, "florist")
	s.Require().NoError(err)
	return commands.NewCompleteTaskCommandHandler(taskUoWFactory{s.f.store}).Handle(s.T().Context(), cmd)
}

func (s *TaskCommandsSuite) qualityCheck(taskID kernel.UUID, approved bool) (*task.FloristTask, error) {
	cmd, err := commands.NewQualityCheckCommand(taskID, approved, nil, "stems too short", "senior florist")
	s.Require().NoError(err)
	return commands.NewQualityCheckCommandHandler(uowFactory{s.f.store}, s.f.customers, s.f.logger).Handle(s.T().Context(), cmd)
}

func (s *TaskCommandsSuite) cancel(taskID kernel.UUID) (*task.FloristTask, error) {
	cmd, err := commands.NewCancelTaskCommand(taskID, "customer changed mind", "manager")
	s.Require().NoError(err)
	return commands.NewCancelTaskCommandHandler(uowFactory{s.f.store}, s.f.customers, s.f.logger).Handle(s.T().Context(), cmd)
}

func (s *TaskCommandsSuite) Test_AssignNotifiesFlorist() {
	pending := s.paidOrder()
	anna := s.f.florist("anna")

	assigned, err := s.assign(pending.ID(), anna)

	s.Require().NoError(err)
	s.Equal(task.Assigned, assigned.Status())
	s.True(assigned.FloristID().IsEqual(anna))
	s.NotNil(assigned.AssignedAt())

	messages := s.f.notifier.messages()
	s.Require().Len(messages, 1)
	s.Equal("chat-anna", messages[0].channelID)
	s.Contains(messages[0].text, pending.OrderID().String())
}

// A florist holding an active task cannot take another one.
func (s *TaskCommandsSuite) Test_BusyFloristGetsNothing() {
	first := s.paidOrder()
	second := s.paidOrder()
	anna := s.f.florist("anna")

	_, err := s.assign(first.ID(), anna)
	s.Require().NoError(err)

	_, err = s.f.nextTask(anna)
	s.Require().ErrorIs(err, commands.ErrFloristBusy)

	_, err = s.assign(second.ID(), anna)
	var conflict *errs.AssignmentConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(anna.String(), conflict.FloristID)

	s.Equal(task.Pending, s.f.tasks(second.OrderID())[0].Status())
}

func (s *TaskCommandsSuite) Test_AssignTakenTask() {
	pending := s.paidOrder()
	_, err := s.assign(pending.ID(), s.f.florist("anna"))
	s.Require().NoError(err)

	_, err = s.assign(pending.ID(), s.f.florist("boris"))

	s.Require().ErrorIs(err, errs.ErrAssignmentConflict)
}

func (s *TaskCommandsSuite) Test_StartRequiresAssignment() {
	pending := s.paidOrder()

	_, err := s.start(pending.ID())

	s.Require().ErrorIs(err, errs.ErrAssignmentConflict)
}

func (s *TaskCommandsSuite) Test_CompleteRecordsMinutes() {
	pending := s.paidOrder()
	_, err := s.assign(pending.ID(), s.f.florist("anna"))
	s.Require().NoError(err)
	_, err = s.start(pending.ID())
	s.Require().NoError(err)

	minutes := 35
	done, err := s.complete(pending.ID(), &minutes)

	s.Require().NoError(err)
	s.Equal(task.QualityCheck, done.Status())
	s.Require().NotNil(done.ActualMinutes())
	s.Equal(35, *done.ActualMinutes())
	for _, item := range done.Items() {
		s.True(item.IsCompleted())
	}
}

func (s *TaskCommandsSuite) Test_RejectedQualityCheckReopensTask() {
	pending := s.paidOrder()
	anna := s.f.florist("anna")
	_, err := s.assign(pending.ID(), anna)
	s.Require().NoError(err)
	_, err = s.start(pending.ID())
	s.Require().NoError(err)
	_, err = s.complete(pending.ID(), nil)
	s.Require().NoError(err)

	rejected, err := s.qualityCheck(pending.ID(), false)

	s.Require().NoError(err)
	s.Equal(task.InProgress, rejected.Status())
	s.Equal("stems too short", rejected.Notes())
	s.Equal(order.Paid, s.f.order(pending.OrderID()).Status())

	// Still active, so the florist is still busy.
	_, err = s.f.nextTask(anna)
	s.Require().ErrorIs(err, commands.ErrFloristBusy)

	s.Equal([]history.EventType{
		history.EventTaskCreated,
		history.EventTaskAssigned,
		history.EventTaskStarted,
		history.EventTaskCompleted,
		history.EventTaskRejected,
	}, s.f.eventTypes(pending.ID()))
}

func (s *TaskCommandsSuite) Test_CancelLastTaskAdvancesNothingWithoutCompletedWork() {
	pending := s.paidOrder()

	cancelled, err := s.cancel(pending.ID())

	s.Require().NoError(err)
	s.Equal(task.Cancelled, cancelled.Status())
	s.Equal("customer changed mind", cancelled.Notes())
	s.Equal(order.Paid, s.f.order(pending.OrderID()).Status())

	_, err = s.cancel(pending.ID())
	s.Require().ErrorIs(err, errs.ErrAssignmentConflict)
}

func (s *TaskCommandsSuite) Test_CancelFreesFlorist() {
	first := s.paidOrder()
	second := s.paidOrder()
	anna := s.f.florist("anna")
	_, err := s.assign(first.ID(), anna)
	s.Require().NoError(err)

	_, err = s.cancel(first.ID())
	s.Require().NoError(err)

	next, err := s.f.nextTask(anna)
	s.Require().NoError(err)
	s.True(next.ID().IsEqual(second.ID()))
}

func (s *TaskCommandsSuite) Test_UnknownTask() {
	_, err := s.start(kernel.NewUUID())

	s.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *TaskCommandsSuite) Test_DistributeAssignsInRosterOrder() {
	s.paidOrder()
	s.paidOrder()
	s.paidOrder()
	anna := s.f.florist("anna")
	boris := s.f.florist("boris")
	s.f.florist("clara")

	// clara is busy before distribution starts
	clara := s.f.roster.florists[2].ID
	busy := s.paidOrder()
	_, err := s.assign(busy.ID(), clara)
	s.Require().NoError(err)

	h := commands.NewDistributePendingTasksCommandHandler(taskUoWFactory{s.f.store}, s.f.roster, s.f.notifier, s.f.logger)
	result, err := h.Handle(s.T().Context(), commands.NewDistributePendingTasksCommand())

	s.Require().NoError(err)
	s.Equal(commands.DistributionResult{Distributed: 2, Skipped: 1, Remaining: 1}, result)

	for _, florist := range []kernel.UUID{anna, boris} {
		_, err = s.f.nextTask(florist)
		s.Require().ErrorIs(err, commands.ErrFloristBusy)
	}
}

func (s *TaskCommandsSuite) Test_DistributeWithEmptyQueue() {
	s.f.florist("anna")

	h := commands.NewDistributePendingTasksCommandHandler(taskUoWFactory{s.f.store}, s.f.roster, s.f.notifier, s.f.logger)
	result, err := h.Handle(s.T().Context(), commands.NewDistributePendingTasksCommand())

	s.Require().NoError(err)
	s.Equal(commands.DistributionResult{}, result)
	s.Empty(s.f.notifier.messages())
}

func (s *TaskCommandsSuite) Test_NextTaskWithEmptyQueue() {
	_, err := s.f.nextTask(s.f.florist("anna"))

	s.Require().ErrorIs(err, services.ErrNoPendingTask)
}

func TestCheckAndUpdateOverdueTasks_EscalatesOnce(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	seed := func(priority task.Priority, deadline time.Time, status task.Status, floristID *kernel.UUID) kernel.UUID {
		item, err := task.NewItem(kernel.NewUUID(), kernel.NewUUID(), 1)
		require.NoError(t, err)
		restored, err := task.RestoreFloristTask(task.Snapshot{
			ID: kernel.NewUUID(), OrderID: kernel.NewUUID(), Kind: task.Bouquet, Status: status,
			Priority: priority, Deadline: deadline, FloristID: floristID, EstimatedMinutes: 20,
			CreatedAt: now.Add(-3 * time.Hour), Items: []*task.Item{item},
		})
		require.NoError(t, err)

		uow := f.store.Create()
		require.NoError(t, uow.Begin(t.Context()))
		require.NoError(t, uow.TaskRepository().Add(t.Context(), restored))
		require.NoError(t, uow.Commit(t.Context()))
		return restored.ID()
	}
	florist := kernel.NewUUID()
	late := seed(task.Normal, now.Add(-time.Hour), task.Pending, nil)
	lateInProgress := seed(task.Low, now.Add(-time.Minute), task.InProgress, &florist)
	seed(task.Urgent, now.Add(-time.Hour), task.Pending, nil)
	seed(task.Normal, now.Add(time.Hour), task.Pending, nil)
	seed(task.Normal, now.Add(-time.Hour), task.Completed, &florist)

	handler := commands.NewCheckAndUpdateOverdueTasksCommandHandler(taskUoWFactory{f.store})

	escalated, err := handler.Handle(t.Context(), commands.NewCheckAndUpdateOverdueTasksCommand())
	require.NoError(t, err)
	assert.Equal(t, 2, escalated)

	escalated, err = handler.Handle(t.Context(), commands.NewCheckAndUpdateOverdueTasksCommand())
	require.NoError(t, err)
	assert.Zero(t, escalated)

	assert.Equal(t, []history.EventType{history.EventTaskEscalated}, f.eventTypes(late))
	assert.Equal(t, []history.EventType{history.EventTaskEscalated}, f.eventTypes(lateInProgress))
}
