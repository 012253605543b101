package services

import (
	"encoding/json"
	"fmt"
	"log"

	"fulfillment/internal/finance"
	"fulfillment/internal/identity"
	"fulfillment/internal/ledger"
	"fulfillment/internal/models"
	"fulfillment/internal/money"
	"fulfillment/internal/shipping"
)

// OrderView is the read-side projection of an order for one role: reconciled
// totals, role-filtered ledger and role-priced lines.
type OrderView struct {
	ID           uint             `json:"id"`
	OrderGroupID *string          `json:"order_group_id,omitempty"`
	Currency     string           `json:"currency"`
	Type         models.OrderType `json:"type"`
	Buyer        models.Buyer     `json:"user"`
	// RequiresManualCollection flags request orders, which are paid out of
	// platform before normal processing; enforcement happens upstream.
	RequiresManualCollection bool `json:"requires_manual_collection"`

	// GroupTotal is the roll-up across sub-orders, hidden from vendors.
	GroupTotal string `json:"group_total,omitempty"`

	Payments             []ledger.Entry `json:"payments"`
	HasSuccessfulPayment bool           `json:"has_successful_payment"`

	// InvoiceRefreshDue tells the dashboard to re-fetch shortly: a recent paid
	// confirmation may still have invoice generation in flight.
	InvoiceRefreshDue bool `json:"invoice_refresh_due"`

	Units []UnitView `json:"units"`
}

// UnitView is one fulfillment unit as shown to the caller.
type UnitView struct {
	SubOrderID      *uint                  `json:"sub_order_id,omitempty"`
	OrderCode       string                 `json:"order_id"`
	Vendor          models.Vendor          `json:"vendor"`
	OrderStatus     models.OrderStatus     `json:"order_status"`
	PaymentStatus   models.PaymentStatus   `json:"payment_status"`
	ShipmentStatus  models.ShipmentStatus  `json:"shipment_status"`
	ShipmentDetails models.ShipmentDetails `json:"shipment_details"`
	Route           shipping.Route         `json:"shipping_route"`
	Breakdown       finance.Breakdown      `json:"breakdown"`
	Lines           []finance.LineView     `json:"items"`
	GrandTotal      string                 `json:"grand_total"`
}

// viewScope keys cached views. Vendor views are filtered to the vendor's own
// units, so the vendor id is part of the key; the admin roles each share one
// rendering.
func viewScope(actor identity.Actor) string {
	if actor.IsVendor() {
		return string(actor.Role) + ":" + actor.VendorID
	}
	return string(actor.Role)
}

func (s *orderService) GetOrder(id uint, actor identity.Actor) (*OrderView, error) {
	scope := viewScope(actor)
	if s.cache != nil {
		if payload, err := s.cache.GetOrderView(id, scope); err == nil && payload != nil {
			var view OrderView
			if err := json.Unmarshal(payload, &view); err == nil {
				view.InvoiceRefreshDue = s.invoiceRefreshDue(id)
				return &view, nil
			}
		}
	}

	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	view, err := s.buildView(order, actor)
	if err != nil {
		return nil, err
	}

	s.markNotificationsRead(order)

	if s.cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			if err := s.cache.SetOrderView(id, scope, payload); err != nil {
				log.Printf("cache: store order %d view: %v", id, err)
			}
		}
	}
	view.InvoiceRefreshDue = s.invoiceRefreshDue(id)
	return view, nil
}

func (s *orderService) invoiceRefreshDue(id uint) bool {
	if s.cache == nil {
		return false
	}
	due, err := s.cache.InvoiceRefreshDue(id)
	if err != nil {
		log.Printf("cache: invoice refresh check for order %d: %v", id, err)
		return false
	}
	return due
}

func (s *orderService) buildView(order *models.Order, actor identity.Actor) (*OrderView, error) {
	view := &OrderView{
		ID:                       order.ID,
		OrderGroupID:             order.OrderGroupID,
		Currency:                 order.Currency,
		Type:                     order.Type,
		Buyer:                    order.Buyer,
		RequiresManualCollection: order.Type == models.OrderTypeRequest,
		Payments:                 ledger.View(order.TransactionDetails, actor.Role),
		HasSuccessfulPayment:     ledger.HasSuccessfulPayment(order.TransactionDetails),
	}
	if !actor.IsVendor() && order.Grouped() {
		view.GroupTotal = money.Format(order.GroupTotalAmount, order.Currency)
	}

	if !order.Grouped() {
		u := unit{order: order}
		view.Units = append(view.Units, s.unitView(u, order.Currency, actor))
		return view, nil
	}

	for i := range order.GroupedOrders {
		sub := &order.GroupedOrders[i]
		if actor.IsVendor() && !actor.OwnsVendor(sub.Vendor.VendorID) {
			continue
		}
		view.Units = append(view.Units, s.unitView(unit{order: order, sub: sub}, order.Currency, actor))
	}
	if actor.IsVendor() && len(view.Units) == 0 {
		return nil, guardViolation("vendors may only view their own sub-orders")
	}
	return view, nil
}

func (s *orderService) unitView(u unit, currency string, actor identity.Actor) UnitView {
	state := u.state()
	details := models.ParseShipmentDetails(state.ShipmentDetails)
	return UnitView{
		SubOrderID:      u.subID(),
		OrderCode:       state.OrderCode,
		Vendor:          u.vendor(),
		OrderStatus:     state.OrderStatus,
		PaymentStatus:   state.PaymentStatus,
		ShipmentStatus:  state.ShipmentStatus,
		ShipmentDetails: details,
		Route:           s.classifier.ClassifyUnit(u.vendor(), details),
		Breakdown:       finance.Reconcile(*state, u.vendor()),
		Lines:           finance.LineViews(u.items(), actor.Role),
		GrandTotal:      money.Format(state.TotalAmount, currency),
	}
}

// markNotificationsRead clears dashboard notifications filed under the
// order's own id and, when set, its group id: upstream processes file under
// either one. Failures are logged, never surfaced.
func (s *orderService) markNotificationsRead(order *models.Order) {
	if s.notifier == nil {
		return
	}
	ids := []string{fmt.Sprint(order.ID)}
	if order.OrderGroupID != nil && *order.OrderGroupID != "" && *order.OrderGroupID != fmt.Sprint(order.ID) {
		ids = append(ids, *order.OrderGroupID)
	}
	for _, id := range ids {
		if err := s.notifier.MarkOrderRead(id); err != nil {
			log.Printf("notify: mark order %s read: %v", id, err)
		}
	}
}
