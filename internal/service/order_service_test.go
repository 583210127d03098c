package service

import (
	"testing"

	"go-accounting/internal/model"
	"go-accounting/pkg/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func itemFor(order *model.Order, purchaseID uuid.UUID) *model.OrderItem {
	for i := range order.OrderItems {
		if order.OrderItems[i].PurchaseID == purchaseID {
			return &order.OrderItems[i]
		}
	}
	return nil
}

func TestCreateOrderCreatesTally(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, f.owner, "Acme")

	require.Equal(t, f.owner.UserID, o.UserID)
	requireTally(t, o.FinalTally, "0.00", "0.00", "0.00")
}

func TestCreateOrderDefaultsDateToToday(t *testing.T) {
	f := newFixture(t)
	o, err := f.orders.CreateOrder(OrderInput{CustomerName: "Acme"}, f.owner)
	require.NoError(t, err)
	require.Equal(t, today().Format(model.DateLayout), o.Date.Format(model.DateLayout))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, f.owner, "Widget", "1.00", "2.00", 10)

	_, err := f.orders.CreateOrder(OrderInput{CustomerName: ""}, f.owner)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields, "customer_name")

	_, err = f.orders.CreateOrder(OrderInput{
		CustomerName: "Acme",
		Items:        []InlineItem{{PurchaseID: p.ID, QuantitySent: 0}},
	}, f.owner)
	require.ErrorAs(t, err, &ve)

	orders, err := f.orders.GetAllOrders(f.owner, listAll)
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Equal(t, 10, f.stock(t, p.ID))
}

func TestCreateOrderForAnotherOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.CreateOrder(OrderInput{CustomerName: "Acme", UserID: &f.other.UserID}, f.owner)
	require.ErrorIs(t, err, ErrForbidden)

	o, err := f.orders.CreateOrder(OrderInput{CustomerName: "Acme", UserID: &f.other.UserID}, f.admin)
	require.NoError(t, err)
	require.Equal(t, f.other.UserID, o.UserID)

	_, err = f.orders.GetOrder(o.ID, f.other)
	require.NoError(t, err)
}

func TestCreateOrderWithInlineItems(t *testing.T) {
	f := newFixture(t)
	widget := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	gadget := f.purchase(t, f.owner, "Gadget", "2.50", "4.00", 20)

	o, err := f.orders.CreateOrder(OrderInput{
		CustomerName: "Acme",
		Items: []InlineItem{
			{PurchaseID: widget.ID, QuantitySent: 4},
			{PurchaseID: gadget.ID, QuantitySent: 2},
		},
	}, f.owner)
	require.NoError(t, err)

	require.Len(t, o.OrderItems, 2)
	require.Equal(t, 96, f.stock(t, widget.ID))
	require.Equal(t, 18, f.stock(t, gadget.ID))
	requireTally(t, o.FinalTally, "45.00", "68.00", "23.00")
}

func TestUpdateOrderInlineItems(t *testing.T) {
	f := newFixture(t)
	widget := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	gadget := f.purchase(t, f.owner, "Gadget", "2.50", "4.00", 20)
	sprocket := f.purchase(t, f.owner, "Sprocket", "1.00", "1.50", 10)

	o, err := f.orders.CreateOrder(OrderInput{
		CustomerName: "Acme",
		Items: []InlineItem{
			{PurchaseID: widget.ID, QuantitySent: 4},
			{PurchaseID: gadget.ID, QuantitySent: 2},
		},
	}, f.owner)
	require.NoError(t, err)
	widgetItem := itemFor(o, widget.ID)
	gadgetItem := itemFor(o, gadget.ID)
	require.NotNil(t, widgetItem)
	require.NotNil(t, gadgetItem)

	updated, err := f.orders.UpdateOrder(o.ID, OrderInput{
		CustomerName: "Acme Corp",
		Items: []InlineItem{
			{ID: &widgetItem.ID, PurchaseID: widget.ID, QuantitySent: 1},
			{ID: &gadgetItem.ID, PurchaseID: gadget.ID, QuantitySent: 2, Delete: true},
			{PurchaseID: sprocket.ID, QuantitySent: 5},
		},
	}, f.owner)
	require.NoError(t, err)

	require.Equal(t, "Acme Corp", updated.CustomerName)
	require.Len(t, updated.OrderItems, 2)
	require.Nil(t, itemFor(updated, gadget.ID))
	require.Equal(t, 99, f.stock(t, widget.ID))
	require.Equal(t, 20, f.stock(t, gadget.ID))
	require.Equal(t, 5, f.stock(t, sprocket.ID))
	requireTally(t, updated.FinalTally, "15.00", "22.50", "7.50")
}

func TestUpdateOrderCreatesItemUnderUnknownID(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	o := f.order(t, f.owner, "Acme")

	id := uuid.New()
	updated, err := f.orders.UpdateOrder(o.ID, OrderInput{
		CustomerName: "Acme",
		Items:        []InlineItem{{ID: &id, PurchaseID: p.ID, QuantitySent: 7}},
	}, f.owner)
	require.NoError(t, err)

	require.Len(t, updated.OrderItems, 1)
	require.Equal(t, id, updated.OrderItems[0].ID)
	require.Equal(t, 93, f.stock(t, p.ID))
}

func TestUpdateOrderRejectsItemOfAnotherOrder(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	first := f.order(t, f.owner, "Acme")
	second := f.order(t, f.owner, "Initech")

	item, err := f.items.CreateOrderItem(OrderItemInput{OrderID: first.ID, PurchaseID: p.ID, QuantitySent: 4}, f.owner)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrder(second.ID, OrderInput{
		CustomerName: "Initech",
		Items:        []InlineItem{{ID: &item.ID, PurchaseID: p.ID, QuantitySent: 1}},
	}, f.owner)
	require.ErrorIs(t, err, ErrOrderItemNotFound)

	// Rolled back as a whole
	require.Equal(t, 96, f.stock(t, p.ID))
}

func TestUpdateOrderRepairsMissingTally(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	o := f.order(t, f.owner, "Acme")
	_, err := f.items.CreateOrderItem(OrderItemInput{OrderID: o.ID, PurchaseID: p.ID, QuantitySent: 4}, f.owner)
	require.NoError(t, err)

	require.NoError(t, f.tallyRepo.DeleteByOrder(o.ID))
	_, err = f.tallies.GetByOrderID(o.ID, f.owner)
	require.ErrorIs(t, err, ErrTallyNotFound)

	updated, err := f.orders.UpdateOrder(o.ID, OrderInput{CustomerName: "Acme"}, f.owner)
	require.NoError(t, err)
	requireTally(t, updated.FinalTally, "40.00", "60.00", "20.00")
}

func TestDeleteOrderKeepsStock(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	o, err := f.orders.CreateOrder(OrderInput{
		CustomerName: "Acme",
		Items:        []InlineItem{{PurchaseID: p.ID, QuantitySent: 4}},
	}, f.owner)
	require.NoError(t, err)

	require.ErrorIs(t, f.orders.DeleteOrder(o.ID, f.other), ErrOrderNotFound)
	require.NoError(t, f.orders.DeleteOrder(o.ID, f.owner))

	_, err = f.orders.GetOrder(o.ID, f.owner)
	require.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.tallies.GetByOrderID(o.ID, f.admin)
	require.ErrorIs(t, err, ErrTallyNotFound)
	items, err := f.items.GetAllOrderItems(f.admin, listAll)
	require.NoError(t, err)
	require.Empty(t, items)

	require.Equal(t, 96, f.stock(t, p.ID))
	require.NotEmpty(t, f.notes.ofType("order_deleted"))
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	mine := f.order(t, f.owner, "Acme")
	theirs := f.order(t, f.other, "Globex")

	orders, err := f.orders.GetAllOrders(f.owner, listAll)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, mine.ID, orders[0].ID)

	_, err = f.orders.GetOrder(theirs.ID, f.owner)
	require.ErrorIs(t, err, ErrOrderNotFound)

	orders, err = f.orders.GetAllOrders(f.admin, listAll)
	require.NoError(t, err)
	require.Len(t, orders, 2)
}

func TestUpdateOrderRejectsForeignInlineItem(t *testing.T) {
	f := newFixture(t)
	mine := f.purchase(t, f.owner, "Widget", "10.00", "15.00", 100)
	theirs := f.purchase(t, f.other, "Gadget", "5.00", "8.00", 50)
	theirOrder, err := f.orders.CreateOrder(OrderInput{
		CustomerName: "Globex",
		Items:        []InlineItem{{PurchaseID: theirs.ID, QuantitySent: 5}},
	}, f.other)
	require.NoError(t, err)
	require.Len(t, theirOrder.OrderItems, 1)
	theirItem := theirOrder.OrderItems[0]

	myOrder := f.order(t, f.owner, "Acme")
	_, err = f.orders.UpdateOrder(myOrder.ID, OrderInput{
		CustomerName: "Acme",
		Items: []InlineItem{
			{PurchaseID: mine.ID, QuantitySent: 3},
			{ID: &theirItem.ID, PurchaseID: mine.ID, QuantitySent: 2},
		},
	}, f.owner)
	require.ErrorIs(t, err, ErrOrderItemNotFound)

	// The whole update rolled back
	require.Equal(t, 100, f.stock(t, mine.ID))
	require.Equal(t, 45, f.stock(t, theirs.ID))
	items, err := f.items.GetAllOrderItems(f.owner, listAll)
	require.NoError(t, err)
	require.Empty(t, items)
	kept, err := f.items.GetOrderItem(theirItem.ID, f.other)
	require.NoError(t, err)
	require.Equal(t, theirOrder.ID, kept.OrderID)
	require.Equal(t, 5, kept.QuantitySent)
}
