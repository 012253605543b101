package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"fulfillment/internal/identity"
	"fulfillment/internal/models"
	"fulfillment/internal/repository"
	"fulfillment/internal/shipping"
)

func adminActor(caps ...identity.Capability) identity.Actor {
	return identity.NewActor("admin-1", identity.RoleAdmin, "", caps)
}

func vendorActor(vendorID string) identity.Actor {
	return identity.NewActor("vendor-user-1", identity.RoleVendor, vendorID, nil)
}

func strp(s string) *string { return &s }

func ungroupedOrder(id uint, status models.OrderStatus, pay models.PaymentStatus) *models.Order {
	return &models.Order{
		ID:       id,
		Currency: "AED",
		Fulfillment: models.Fulfillment{
			OrderCode:      "ORD-1",
			OrderStatus:    status,
			PaymentStatus:  pay,
			ShipmentStatus: models.ShipmentPending,
			TotalAmount:    decimal.RequireFromString("105.00"),
			VATAmount:      decimal.RequireFromString("5.00"),
		},
	}
}

func groupedOrder(id uint, vendorID string) *models.Order {
	group := "AB12CD34"
	return &models.Order{
		ID:               id,
		OrderGroupID:     &group,
		Currency:         "AED",
		GroupTotalAmount: decimal.RequireFromString("315.00"),
		Fulfillment: models.Fulfillment{
			OrderCode:     "ORD-2",
			OrderStatus:   models.OrderReceived,
			PaymentStatus: models.PaymentPending,
		},
		GroupedOrders: []models.SubOrder{
			{
				ID:            11,
				ParentOrderID: id,
				Vendor:        models.Vendor{VendorID: &vendorID, Name: "Vendor A", Country: "US"},
				Fulfillment: models.Fulfillment{
					OrderCode:       "ORD-2-A",
					OrderStatus:     models.OrderReceived,
					PaymentStatus:   models.PaymentPending,
					ShipmentStatus:  models.ShipmentPending,
					TotalAmount:     decimal.RequireFromString("210.00"),
					VATAmount:       decimal.RequireFromString("10.00"),
					AdminCommission: decimal.RequireFromString("20.00"),
					ShipmentDetails: datatypes.JSON(`{"country":"IN"}`),
				},
				Items: []models.OrderItem{
					{OrderID: id, ProductName: "Widget", Quantity: 2, Price: decimal.RequireFromString("100.00"), BasePrice: decimal.RequireFromString("90.00"), Weight: decimal.RequireFromString("0.5")},
				},
			},
			{
				ID:            12,
				ParentOrderID: id,
				Fulfillment: models.Fulfillment{
					OrderCode:       "ORD-2-B",
					OrderStatus:     models.OrderReceived,
					PaymentStatus:   models.PaymentPending,
					ShipmentStatus:  models.ShipmentPending,
					TotalAmount:     decimal.RequireFromString("105.00"),
					VATAmount:       decimal.RequireFromString("5.00"),
					ShipmentDetails: datatypes.JSON(`{"country":"AE"}`),
				},
				Items: []models.OrderItem{
					{OrderID: id, ProductName: "Gadget", Quantity: 1, Price: decimal.RequireFromString("100.00"), BasePrice: decimal.RequireFromString("100.00")},
				},
			},
		},
	}
}

func newOrderService(repo *fakeRepo, notifier Notifier) OrderService {
	return NewOrderService(repo, ModeDirect, shipping.NewClassifier("AE"), nil, notifier)
}

func TestTransitionOrderStatus_ApprovalRequiresPaid(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPending))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target:  models.OrderApproved,
		Comment: strp("ok"),
	}, adminActor(identity.CapOrderApprove))

	var guard *GuardViolationError
	require.ErrorAs(t, err, &guard)

	// Nothing moved, nothing recorded.
	stored, _ := repo.GetByID(1)
	assert.Equal(t, models.OrderReceived, stored.Fulfillment.OrderStatus)
	assert.Empty(t, repo.history)
}

func TestTransitionOrderStatus_ApprovalRequiresCapability(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPaid))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target:  models.OrderApprovedControlled,
		Comment: strp(""),
	}, adminActor(identity.CapOrderApprove)) // holds approve, not controlled approve

	var guard *GuardViolationError
	require.ErrorAs(t, err, &guard)
}

func TestTransitionOrderStatus_ApprovalRequiresExplicitComment(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPaid))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target: models.OrderApproved,
	}, adminActor(identity.CapOrderApprove))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "comment", validation.Field)

	// An empty comment is fine as long as it was explicitly supplied.
	err = svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target:  models.OrderApproved,
		Comment: strp(""),
	}, adminActor(identity.CapOrderApprove))
	require.NoError(t, err)
}

func TestTransitionOrderStatus_ApprovalAppendsFullSnapshot(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPaid))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target:  models.OrderApproved,
		Comment: strp("ok"),
	}, adminActor(identity.CapOrderApprove))
	require.NoError(t, err)

	stored, _ := repo.GetByID(1)
	assert.Equal(t, models.OrderApproved, stored.Fulfillment.OrderStatus)

	require.Len(t, repo.history, 1)
	entry := repo.history[0]
	assert.Equal(t, "ok", entry.Note)
	assert.Equal(t, "admin-1", entry.UpdatedBy)
	assert.Equal(t, models.OrderApproved, entry.OrderStatus)
	assert.Equal(t, models.PaymentPaid, entry.PaymentStatus)
	assert.Equal(t, models.ShipmentPending, entry.ShipmentStatus)
}

func TestTransitionOrderStatus_VendorOwnershipAndWindow(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"))
	svc := newOrderService(repo, nil)
	subA := uint(11)
	subB := uint(12)

	// A vendor rejecting its own sub-order is always allowed.
	err := svc.TransitionOrderStatus(2, OrderTransitionRequest{
		SubOrderID: &subA,
		Target:     models.OrderRejected,
	}, vendorActor("vendor-7"))
	require.NoError(t, err)

	stored, _ := repo.GetByID(2)
	assert.Equal(t, models.OrderRejected, stored.GroupedOrders[0].Fulfillment.OrderStatus)
	// The sibling sub-order is untouched.
	assert.Equal(t, models.OrderReceived, stored.GroupedOrders[1].Fulfillment.OrderStatus)

	// Someone else's sub-order is off limits.
	err = svc.TransitionOrderStatus(2, OrderTransitionRequest{
		SubOrderID: &subB,
		Target:     models.OrderRejected,
	}, vendorActor("vendor-7"))
	var guard *GuardViolationError
	require.ErrorAs(t, err, &guard)

	// And once past order_received the vendor window is closed.
	err = svc.TransitionOrderStatus(2, OrderTransitionRequest{
		SubOrderID: &subA,
		Target:     models.OrderCancelled,
	}, vendorActor("vendor-7"))
	require.ErrorAs(t, err, &guard)
}

func TestTransitionOrderStatus_IllegalTransition(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderApproved, models.PaymentPaid))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target: models.OrderRejected,
	}, adminActor(identity.CapOrderManage))

	var guard *GuardViolationError
	require.ErrorAs(t, err, &guard)
}

func TestTransitionOrderStatus_StaleState(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPaid))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(1, OrderTransitionRequest{
		Target:         models.OrderApproved,
		Comment:        strp("ok"),
		ExpectedStatus: models.OrderVendorApproved, // caller saw something else
	}, adminActor(identity.CapOrderApprove))

	var stale *StaleStateError
	require.ErrorAs(t, err, &stale)
}

func TestTransitionOrderStatus_GroupedOrderNeedsSubOrderID(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"))
	svc := newOrderService(repo, nil)

	err := svc.TransitionOrderStatus(2, OrderTransitionRequest{
		Target: models.OrderCancelled,
	}, adminActor(identity.CapOrderManage))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "sub_order_id", validation.Field)
}

func TestSetPaymentStatus_GuardsAndValidation(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPaid))
	svc := newOrderService(repo, nil)

	_, err := svc.SetPaymentStatus(1, models.PaymentPaid, adminActor(identity.CapOrderManage))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = svc.SetPaymentStatus(1, models.PaymentRefunded, vendorActor("vendor-7"))
	var guard *GuardViolationError
	require.ErrorAs(t, err, &guard)

	_, err = svc.SetPaymentStatus(1, models.PaymentRefunded, adminActor())
	require.ErrorAs(t, err, &guard)
}

func TestSetPaymentStatus_FansOutPerSubOrder(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"))
	svc := newOrderService(repo, nil)

	results, err := svc.SetPaymentStatus(2, models.PaymentFailed, adminActor(identity.CapOrderManage))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.OK)
		assert.NotNil(t, r.SubOrderID)
	}

	stored, _ := repo.GetByID(2)
	assert.Equal(t, models.PaymentFailed, stored.Fulfillment.PaymentStatus)
	for _, sub := range stored.GroupedOrders {
		assert.Equal(t, models.PaymentFailed, sub.Fulfillment.PaymentStatus)
	}
	// One history snapshot per sub-order.
	assert.Len(t, repo.history, 2)
}

func TestGetOrder_MarksNotificationsReadUnderBothIDs(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"))
	notifier := &fakeNotifier{}
	svc := newOrderService(repo, notifier)

	_, err := svc.GetOrder(2, adminActor(identity.CapOrderManage))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "AB12CD34"}, notifier.readIDs)
}

func TestGetOrder_VendorSeesOnlyOwnUnitsAndNoGroupTotal(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"))
	svc := newOrderService(repo, nil)

	view, err := svc.GetOrder(2, vendorActor("vendor-7"))
	require.NoError(t, err)
	require.Len(t, view.Units, 1)
	assert.Equal(t, "ORD-2-A", view.Units[0].OrderCode)
	assert.Empty(t, view.GroupTotal)

	adminView, err := svc.GetOrder(2, adminActor(identity.CapOrderManage))
	require.NoError(t, err)
	assert.Len(t, adminView.Units, 2)
	assert.Equal(t, "AED 315.00", adminView.GroupTotal)
}

func TestGetOrder_UnitViewReconciles(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"))
	svc := newOrderService(repo, nil)

	view, err := svc.GetOrder(2, adminActor(identity.CapOrderManage))
	require.NoError(t, err)

	unitA := view.Units[0]
	assert.True(t, unitA.Breakdown.SubtotalBase.Equal(decimal.RequireFromString("200.00")))
	require.NotNil(t, unitA.Breakdown.VendorReceivable)
	assert.True(t, unitA.Breakdown.VendorReceivable.Equal(decimal.RequireFromString("190.00")))
	// US vendor shipping to IN: neither side is home, so manual tracking.
	assert.Equal(t, shipping.RouteManual, unitA.Route)

	unitB := view.Units[1]
	assert.Equal(t, shipping.RouteCarrierIntegrated, unitB.Route)
	assert.Nil(t, unitB.Breakdown.VendorReceivable)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newOrderService(repo, nil)
	_, err := svc.GetOrder(99, adminActor())
	require.Error(t, err)
}

// twoVendorOrder is a grouped order split across two distinct vendors.
func twoVendorOrder(id uint) *models.Order {
	order := groupedOrder(id, "vendor-7")
	order.GroupedOrders[1].Vendor = models.Vendor{VendorID: strp("vendor-8"), Name: "Vendor B", Country: "AE"}
	return order
}

func TestGetOrder_CachedViewsAreScopedPerVendor(t *testing.T) {
	repo := newFakeRepo(twoVendorOrder(2))
	cache := newFakeCache()
	svc := NewOrderService(repo, ModeDirect, shipping.NewClassifier("AE"), cache, nil)

	viewA, err := svc.GetOrder(2, vendorActor("vendor-7"))
	require.NoError(t, err)
	require.Len(t, viewA.Units, 1)
	assert.Equal(t, "ORD-2-A", viewA.Units[0].OrderCode)

	// The first vendor's read is cached; the second vendor must not be
	// served it.
	viewB, err := svc.GetOrder(2, vendorActor("vendor-8"))
	require.NoError(t, err)
	require.Len(t, viewB.Units, 1)
	assert.Equal(t, "ORD-2-B", viewB.Units[0].OrderCode)

	// Repeat reads hit the cache and stay scoped.
	viewA2, err := svc.GetOrder(2, vendorActor("vendor-7"))
	require.NoError(t, err)
	require.Len(t, viewA2.Units, 1)
	assert.Equal(t, "ORD-2-A", viewA2.Units[0].OrderCode)

	adminView, err := svc.GetOrder(2, adminActor(identity.CapOrderManage))
	require.NoError(t, err)
	assert.Len(t, adminView.Units, 2)
}

func TestGetOrder_ServesCachedViewOnRepeatRead(t *testing.T) {
	repo := newFakeRepo(ungroupedOrder(1, models.OrderReceived, models.PaymentPending))
	cache := newFakeCache()
	svc := NewOrderService(repo, ModeDirect, shipping.NewClassifier("AE"), cache, nil)

	first, err := svc.GetOrder(1, adminActor(identity.CapOrderManage))
	require.NoError(t, err)

	// Mutate the store behind the cache; the cached rendering wins until
	// invalidated.
	stored := repo.orders[1]
	stored.Fulfillment.OrderCode = "ORD-1-CHANGED"

	second, err := svc.GetOrder(1, adminActor(identity.CapOrderManage))
	require.NoError(t, err)
	assert.Equal(t, first.Units[0].OrderCode, second.Units[0].OrderCode)

	require.NoError(t, cache.InvalidateOrder(1))
	third, err := svc.GetOrder(1, adminActor(identity.CapOrderManage))
	require.NoError(t, err)
	assert.Equal(t, "ORD-1-CHANGED", third.Units[0].OrderCode)
}

func TestListOrders_VendorScopedToOwnSubOrders(t *testing.T) {
	vendorOrder := groupedOrder(2, "vendor-7")
	otherOrder := groupedOrder(3, "vendor-9")
	repo := newFakeRepo(vendorOrder, otherOrder)
	svc := newOrderService(repo, nil)

	orders, err := svc.ListOrders(repository.ListFilter{}, vendorActor("vendor-7"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, uint(2), orders[0].ID)
	assert.True(t, orders[0].GroupTotalAmount.IsZero())
}

func TestListOrders_VendorWithoutVendorIDRejected(t *testing.T) {
	repo := newFakeRepo(groupedOrder(2, "vendor-7"), groupedOrder(3, "vendor-9"))
	svc := newOrderService(repo, nil)

	actor := identity.NewActor("vendor-user-1", identity.RoleVendor, "", nil)
	orders, err := svc.ListOrders(repository.ListFilter{}, actor)
	var guard *GuardViolationError
	require.ErrorAs(t, err, &guard)
	assert.Empty(t, orders)
}
