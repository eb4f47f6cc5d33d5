package services_test

import (
	"testing"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWithItems(t *testing.T, window *order.DeliveryWindow, names ...string) *order.Order {
	t.Helper()

	delivery, err := order.NewDeliveryInfo(order.MethodDelivery, "Pushkina 10", window)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), delivery, kernel.ZeroMoney(), kernel.ZeroMoney(), now)
	require.NoError(t, err)

	for _, name := range names {
		item, itemErr := order.NewItem(kernel.NewUUID(), kernel.NewUUID(), name, 2, kernel.MustMoney("100"))
		require.NoError(t, itemErr)
		require.NoError(t, o.AddItem(item))
	}
	return o
}

func TestTaskPlanner_Classify(t *testing.T) {
	planner := services.NewTaskPlanner()

	tests := []struct {
		category string
		name     string
		expected task.Kind
	}{
		{"", "Bouquet of 15 roses", task.Bouquet},
		{"", "Букет из тюльпанов", task.Bouquet},
		{"", "Peonies", task.Bouquet},
		{"", "Hat box with roses", task.Composition},
		{"", "Корзина с цветами", task.Composition},
		{"", "Wedding arch decoration", task.Decoration},
		{"Оформление", "Арка", task.Decoration},
		{"Композиции", "Spring mood", task.Composition},
		{"", "Greeting card", task.UnknownKind},
		{"", "", task.UnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, planner.Classify(tt.category, tt.name))
		})
	}
}

func TestTaskPlanner_Plan(t *testing.T) {
	planner := services.NewTaskPlanner()

	t.Run("one task per kind", func(t *testing.T) {
		o := orderWithItems(t, nil, "Red roses", "White tulips", "Basket of lilies", "Greeting card")

		tasks, err := planner.Plan(o, nil, now)

		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, task.Bouquet, tasks[0].Kind())
		assert.Len(t, tasks[0].Items(), 2)
		assert.Equal(t, task.Composition, tasks[1].Kind())
		assert.Len(t, tasks[1].Items(), 1)
		for _, ft := range tasks {
			assert.Equal(t, task.Pending, ft.Status())
			assert.Equal(t, task.Normal, ft.Priority())
			assert.Equal(t, now.Add(24*time.Hour), ft.Deadline())
			assert.True(t, ft.OrderID().IsEqual(o.ID()))
		}
	})

	t.Run("catalog category wins over name", func(t *testing.T) {
		o := orderWithItems(t, nil, "Spring mood")
		categories := map[string]string{o.Items()[0].ProductID().String(): "Decor"}

		tasks, err := planner.Plan(o, categories, now)

		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.Decoration, tasks[0].Kind())
	})

	t.Run("priority follows delivery window", func(t *testing.T) {
		window, err := order.NewDeliveryWindow(now.Add(90*time.Minute), now.Add(3*time.Hour))
		require.NoError(t, err)
		o := orderWithItems(t, &window, "Roses")

		tasks, err := planner.Plan(o, nil, now)

		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.Urgent, tasks[0].Priority())
		assert.Equal(t, now.Add(90*time.Minute), tasks[0].Deadline())
	})

	t.Run("nothing classifiable", func(t *testing.T) {
		o := orderWithItems(t, nil, "Greeting card", "Balloon")

		tasks, err := planner.Plan(o, nil, now)

		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("task items point at order lines", func(t *testing.T) {
		o := orderWithItems(t, nil, "Roses")

		tasks, err := planner.Plan(o, nil, now)

		require.NoError(t, err)
		item := tasks[0].Items()[0]
		assert.True(t, item.OrderItemID().IsEqual(o.Items()[0].ID()))
		assert.Equal(t, 2, item.Quantity())
	})
}
