package services

import (
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
)

// DefaultDeadlineFallback applies when the order has no delivery window.
const DefaultDeadlineFallback = 24 * time.Hour

// Keywords are matched against the lower-cased product category first and
// the product name second. Decoration and composition are checked before
// bouquet so that "box of roses" lands in composition.
var kindKeywords = []struct {
	kind     task.Kind
	keywords []string
}{
	{task.Decoration, []string{"decor", "оформлен", "wreath", "венок", "венк", "garland", "гирлянд"}},
	{task.Composition, []string{"composition", "композиц", "box", "коробк", "basket", "корзин", "arrangement"}},
	{task.Bouquet, []string{"bouquet", "букет", "rose", "роз", "tulip", "тюльпан", "peon", "пион", "lily", "лили", "chrysanthemum", "хризантем", "flower", "цвет"}},
}

// TaskPlanner is a domain service that turns a paid order into florist tasks.
//
// Business rules:
//   - Items are grouped by the kind of work their product needs
//   - Items that match no keyword get no task
//   - Every task of the order shares the order deadline and the priority
//     derived from it
//
// Example usage:
//
//	planner := NewTaskPlanner()
//	tasks, err := planner.Plan(paidOrder, map[string]string{rosesID.String(): "bouquets"}, time.Now())
//	if err != nil {
//	    return err
//	}
//	for _, t := range tasks {
//	    fmt.Println(t.Kind(), t.Priority(), len(t.Items()))
//	}
type TaskPlanner struct {
	fallback time.Duration
}

// NewTaskPlanner creates a planner that gives orders without a delivery
// window DefaultDeadlineFallback to be assembled.
func NewTaskPlanner() TaskPlanner {
	return TaskPlanner{fallback: DefaultDeadlineFallback}
}

// Classify returns the kind of work for a product or UnknownKind when no
// keyword matches.
func (p TaskPlanner) Classify(category, name string) task.Kind {
	for _, source := range []string{category, name} {
		source = strings.ToLower(source)
		if source == "" {
			continue
		}
		for _, rule := range kindKeywords {
			for _, kw := range rule.keywords {
				if strings.Contains(source, kw) {
					return rule.kind
				}
			}
		}
	}
	return task.UnknownKind
}

// Plan builds one pending task per kind of work found among the order items.
// categories maps product id to catalog category; a missing entry falls back
// to the item name. The result is empty when nothing is classifiable.
func (p TaskPlanner) Plan(o *order.Order, categories map[string]string, now time.Time) ([]*task.FloristTask, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	grouped := make(map[task.Kind][]*task.Item)
	for _, item := range o.Items() {
		kind := p.Classify(categories[item.ProductID().String()], item.ProductName())
		if kind == task.UnknownKind {
			continue
		}
		taskItem, err := task.NewItem(kernel.NewUUID(), item.ID(), item.Quantity())
		if err != nil {
			return nil, err
		}
		grouped[kind] = append(grouped[kind], taskItem)
	}

	deadline := o.Deadline(now, p.fallback)
	priority := task.PriorityForDeadline(deadline, now)

	tasks := make([]*task.FloristTask, 0, len(grouped))
	for _, kind := range task.AllKinds() {
		items, ok := grouped[kind]
		if !ok {
			continue
		}
		t, err := task.NewFloristTask(kernel.NewUUID(), o.ID(), kind, priority, deadline, items, now)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
