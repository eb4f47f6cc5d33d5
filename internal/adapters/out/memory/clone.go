package memory

import (
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
)

// cloneOrder copies an order through its snapshot so the store and callers
// never share items.
func cloneOrder(o *order.Order) (*order.Order, error) {
	items := make([]*order.Item, 0, len(o.Items()))
	for _, item := range o.Items() {
		restored, err := order.RestoreItem(order.ItemSnapshot{
			ID:           item.ID(),
			ProductID:    item.ProductID(),
			ProductName:  item.ProductName(),
			LotID:        item.LotID(),
			Quantity:     item.Quantity(),
			Price:        item.Price(),
			IsReserved:   item.IsReserved(),
			IsWrittenOff: item.IsWrittenOff(),
		})
		if err != nil {
			return nil, err
		}
		items = append(items, restored)
	}

	return order.RestoreOrder(order.Snapshot{
		ID:            o.ID(),
		CustomerID:    o.CustomerID(),
		Delivery:      o.Delivery(),
		DeliveryFee:   o.DeliveryFee(),
		Discount:      o.Discount(),
		Status:        o.Status(),
		IssueType:     o.IssueType(),
		IssueComment:  o.IssueComment(),
		TrackingToken: o.TrackingToken(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
		Items:         items,
	})
}

// cloneLot copies a lot through LotSnapshot.
func cloneLot(l *warehouse.Lot) (*warehouse.Lot, error) {
	return warehouse.RestoreLot(warehouse.LotSnapshot{
		ID:           l.ID(),
		ProductID:    l.ProductID(),
		Qty:          l.Qty(),
		ReservedQty:  l.ReservedQty(),
		CostPrice:    l.CostPrice(),
		RetailPrice:  l.RetailPrice(),
		DeliveryDate: l.DeliveryDate(),
		IsWrittenOff: l.IsWrittenOff(),
		IsHidden:     l.IsHidden(),
	})
}

// cloneTask copies a task together with its items.
func cloneTask(t *task.FloristTask) (*task.FloristTask, error) {
	items := make([]*task.Item, 0, len(t.Items()))
	for _, item := range t.Items() {
		restored, err := task.RestoreItem(item.ID(), item.OrderItemID(), item.Quantity(),
			item.IsCompleted(), item.QualityApproved())
		if err != nil {
			return nil, err
		}
		items = append(items, restored)
	}

	return task.RestoreFloristTask(task.Snapshot{
		ID:               t.ID(),
		OrderID:          t.OrderID(),
		Kind:             t.Kind(),
		Status:           t.Status(),
		Priority:         t.Priority(),
		Deadline:         t.Deadline(),
		FloristID:        t.FloristID(),
		AssignedAt:       t.AssignedAt(),
		StartedAt:        t.StartedAt(),
		CompletedAt:      t.CompletedAt(),
		EstimatedMinutes: t.EstimatedMinutes(),
		ActualMinutes:    t.ActualMinutes(),
		QualityScore:     t.QualityScore(),
		Notes:            t.Notes(),
		CreatedAt:        t.CreatedAt(),
		Items:            items,
	})
}
