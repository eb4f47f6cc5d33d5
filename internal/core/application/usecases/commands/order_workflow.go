package commands

import (
	"context"
	"errors"
	"time"

	"flowershop/internal/core/application/ledger"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/domain/services"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

// systemActor signs history rows written without a human actor.
const systemActor = "system"

// orderWorkflow applies the side effects of order transitions inside the
// unit of work that changes the order.
//
// Effects are applied in a fixed order:
//   - stock first, so a ledger failure aborts before anything else is written
//   - task cancellation next
//   - the order row and its history entry
//   - task planning last, since planned tasks reference the saved order
//
// Example:
//
//	workflow := newOrderWorkflow(uow, catalog, time.Now().UTC())
//	if err := workflow.transition(ctx, o, order.Paid, false, history.EventStatusChanged, actor, ""); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
type orderWorkflow struct {
	uow     UoW
	catalog ports.Catalog
	planner services.TaskPlanner
	now     time.Time
}

// newOrderWorkflow binds the workflow to one unit of work and one clock reading.
func newOrderWorkflow(uow UoW, catalog ports.Catalog, now time.Time) orderWorkflow {
	return orderWorkflow{uow: uow, catalog: catalog, planner: services.NewTaskPlanner(), now: now}
}

// transition moves the order, applies stock and task effects, saves the order
// and appends a history row of eventType. Ledger failures come back as
// errs.StockInconsistencyError; the caller rolls the unit of work back.
//
// Parameters:
//   - o: the order, loaded with GetForUpdate in the same unit of work
//   - to: the target status
//   - override: skip the transition table, effects of to still apply
//   - eventType: the history event to record
//   - actor, comment: copied to the history row
//
// Returns:
//   - an *errs.InvalidTransitionError when to is not reachable
//   - an *errs.StockInconsistencyError when the ledger refuses
//   - repository errors unchanged
func (w orderWorkflow) transition(
	ctx context.Context,
	o *order.Order,
	to order.Status,
	override bool,
	eventType history.EventType,
	actor, comment string,
) error {
	from := o.Status()
	effects, err := o.Transition(to, override, w.now)
	if err != nil {
		return err
	}
	return w.apply(ctx, o, from, effects, eventType, actor, comment)
}

// apply performs the effects of a transition already made in memory. Tasks
// are planned only after the order row and its history entry are saved.
func (w orderWorkflow) apply(
	ctx context.Context,
	o *order.Order,
	from order.Status,
	effects order.Effects,
	eventType history.EventType,
	actor, comment string,
) error {
	if err := w.applyStock(ctx, o, effects); err != nil {
		return errs.NewStockInconsistencyError(o.ID().String(), err)
	}

	if effects.Has(order.CancelTasks) {
		if err := w.cancelTasks(ctx, o, actor); err != nil {
			return err
		}
	}

	if err := w.uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}

	entry, err := history.NewEntry(history.EntityOrder, o.ID(), o.ID(), eventType,
		from.String(), o.Status().String(), actor, comment, w.now)
	if err != nil {
		return err
	}
	if err = w.uow.HistoryRepository().Add(ctx, entry); err != nil {
		return err
	}

	if effects.Has(order.PlanTasks) {
		if _, err = w.planTasks(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// applyStock releases or writes off every item still holding a reservation.
//
// WriteOffStock wins over ReleaseStock when both are set. Every ledger
// call is mirrored on the order item so the two never disagree.
func (w orderWorkflow) applyStock(ctx context.Context, o *order.Order, effects order.Effects) error {
	if !effects.Has(order.WriteOffStock) && !effects.Has(order.ReleaseStock) {
		return nil
	}

	l := ledger.New(w.uow.LotRepository(), w.uow.MovementRepository())
	ref := warehouse.OrderRef(o.ID())

	for _, item := range o.ItemsHoldingReservation() {
		switch {
		case effects.Has(order.WriteOffStock):
			if err := l.WriteOff(ctx, *item.LotID(), item.Quantity(), ref, w.now); err != nil {
				return err
			}
			if err := o.WriteOffItem(item.ID()); err != nil {
				return err
			}
		case effects.Has(order.ReleaseStock):
			if err := l.Unreserve(ctx, *item.LotID(), item.Quantity(), ref, w.now); err != nil {
				return err
			}
			if err := o.ReleaseItem(item.ID()); err != nil {
				return err
			}
		}
	}
	return nil
}

// planTasks creates florist tasks for the order unless it already has open
// ones, in which case those are returned.
//
// Business rules:
//   - Planning is idempotent, a paid order never gets a second set of tasks
//   - Cancelled tasks do not count as existing ones
//   - Every planned task gets a task_created history row
func (w orderWorkflow) planTasks(ctx context.Context, o *order.Order) ([]*task.FloristTask, error) {
	taskRepo := w.uow.TaskRepository()

	existing, err := taskRepo.ListByOrder(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	open := make([]*task.FloristTask, 0, len(existing))
	for _, t := range existing {
		if t.Status() != task.Cancelled {
			open = append(open, t)
		}
	}
	if len(open) > 0 {
		return open, nil
	}

	categories, err := w.categories(ctx, o)
	if err != nil {
		return nil, err
	}

	planned, err := w.planner.Plan(o, categories, w.now)
	if err != nil {
		return nil, err
	}

	entries := make([]*history.Entry, 0, len(planned))
	for _, t := range planned {
		if err = taskRepo.Add(ctx, t); err != nil {
			return nil, err
		}
		entry, entryErr := history.NewEntry(history.EntityTask, t.ID(), o.ID(), history.EventTaskCreated,
			"", t.Status().String(), systemActor, t.Kind().String(), w.now)
		if entryErr != nil {
			return nil, entryErr
		}
		entries = append(entries, entry)
	}
	if len(entries) > 0 {
		if err = w.uow.HistoryRepository().Add(ctx, entries...); err != nil {
			return nil, err
		}
	}
	return planned, nil
}

// categories looks up catalog categories of the order products. Products the
// catalog no longer knows are classified by name.
//
// A nil catalog yields an empty map and every item is classified by
// its name.
func (w orderWorkflow) categories(ctx context.Context, o *order.Order) (map[string]string, error) {
	result := make(map[string]string, len(o.Items()))
	if w.catalog == nil {
		return result, nil
	}
	for _, item := range o.Items() {
		product, err := w.catalog.GetProduct(ctx, item.ProductID())
		if errors.Is(err, errs.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[item.ProductID().String()] = product.Category
	}
	return result, nil
}

// cancelTasks cancels every open task of the order and records each one.
//
// Terminal tasks are skipped. The cancellation reason is fixed so the
// florist sees why the task disappeared.
func (w orderWorkflow) cancelTasks(ctx context.Context, o *order.Order, actor string) error {
	taskRepo := w.uow.TaskRepository()
	tasks, err := taskRepo.ListByOrder(ctx, o.ID())
	if err != nil {
		return err
	}

	for _, t := range tasks {
		if t.Status().IsTerminal() {
			continue
		}
		from := t.Status()
		if err = t.Cancel("order cancelled"); err != nil {
			return err
		}
		if err = taskRepo.Update(ctx, t); err != nil {
			return err
		}
		if err = appendTaskEntry(ctx, w.uow, t, history.EventTaskCancelled, from, actor, "order cancelled", w.now); err != nil {
			return err
		}
	}
	return nil
}

// advanceIfAssembled moves a paid order to assembled once every task that is
// not cancelled is completed.
//
// Returns:
//   - true when the order moved to assembled
//   - false when the order is not paid or some task is still open
//   - false when every task was cancelled
func (w orderWorkflow) advanceIfAssembled(ctx context.Context, o *order.Order, actor string) (bool, error) {
	if o.Status() != order.Paid {
		return false, nil
	}

	tasks, err := w.uow.TaskRepository().ListByOrder(ctx, o.ID())
	if err != nil {
		return false, err
	}
	completed := 0
	for _, t := range tasks {
		switch t.Status() {
		case task.Cancelled:
		case task.Completed:
			completed++
		default:
			return false, nil
		}
	}
	if completed == 0 {
		return false, nil
	}

	if err = w.transition(ctx, o, order.Assembled, false, history.EventStatusChanged, actor, "all florist tasks completed"); err != nil {
		return false, err
	}
	return true, nil
}

// appendTaskEntry records a task event with the status before and after it.
func appendTaskEntry(
	ctx context.Context,
	uow HistoryRepoFactory,
	t *task.FloristTask,
	eventType history.EventType,
	from task.Status,
	actor, comment string,
	now time.Time,
) error {
	entry, err := history.NewEntry(history.EntityTask, t.ID(), t.OrderID(), eventType,
		from.String(), t.Status().String(), actor, comment, now)
	if err != nil {
		return err
	}
	return uow.HistoryRepository().Add(ctx, entry)
}
