package commands_test

import (
	"testing"

	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCustomerStatistics_RefreshedAfterEveryOrderChange(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 5)

	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 1})
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 1)

	f.mustTransition(o.ID(), order.Paid)
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 2)

	_, err := reportIssue(t, f, o.ID())
	require.NoError(t, err)
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 3)

	// the order is already in issue, nothing is committed
	_, err = reportIssue(t, f, o.ID())
	require.NoError(t, err)
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 3)

	f.mustTransition(o.ID(), order.Cancelled)
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 4)
}

func TestCustomerStatistics_NotRefreshedOnRejectedTransition(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 5)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 1})

	_, err := f.transition(o.ID(), order.Completed)

	require.Error(t, err)
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 1)
}

func TestCustomerStatistics_RefreshedWhenLastTaskApproved(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 5)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 1})
	f.mustTransition(o.ID(), order.Paid)
	anna := f.florist("anna")

	assigned, err := f.nextTask(anna)
	require.NoError(t, err)
	f.finishTask(assigned.ID())

	assert.Equal(t, order.Assembled, f.order(o.ID()).Status())
	f.customers.AssertNumberOfCalls(t, "UpdateStatistics", 3)
}

func TestCustomerStatistics_FailureIsLogged(t *testing.T) {
	f := newFixture(t)
	customers := new(MockCustomers)
	customers.On("GetOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(f.customerID, nil).Once()
	customers.On("UpdateStatistics", mock.Anything, f.customerID).Return(assert.AnError).Once()

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "+7", "", selfPickup(t), kernel.ZeroMoney(),
		kernel.ZeroMoney(), []commands.OrderLine{{ProductID: f.product("Lily", "", 1), Quantity: 1}}, "")
	require.NoError(t, err)

	created, err := commands.NewCreateOrderCommandHandler(uowFactory{f.store}, f.catalog, customers, f.logger).
		Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Equal(t, order.New, f.order(created.ID()).Status())
	assert.Contains(t, f.logs.String(), "update customer statistics")
	assert.Contains(t, f.logs.String(), created.ID().String())
	customers.AssertExpectations(t)
}
