package services

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"fulfillment/internal/identity"
	"fulfillment/internal/models"
	"fulfillment/internal/repository"
	"fulfillment/internal/shipping"
)

// ViewCache caches rendered order views per role and carries the
// invoice-refresh hint set after a paid confirmation. Implemented by the
// redis client; a nil cache disables caching.
type ViewCache interface {
	GetOrderView(orderID uint, scope string) ([]byte, error)
	SetOrderView(orderID uint, scope string, payload []byte) error
	InvalidateOrder(orderID uint) error
	ScheduleInvoiceRefresh(orderID uint) error
	InvoiceRefreshDue(orderID uint) (bool, error)
}

// Notifier marks dashboard notifications read for an order entity id.
type Notifier interface {
	MarkOrderRead(entityID string) error
}

type OrderService interface {
	GetOrder(id uint, actor identity.Actor) (*OrderView, error)
	ListOrders(filter repository.ListFilter, actor identity.Actor) ([]models.Order, error)
	GetHistory(orderID uint) ([]models.StatusHistory, error)
	TransitionOrderStatus(orderID uint, req OrderTransitionRequest, actor identity.Actor) error
	SetPaymentStatus(orderID uint, target models.PaymentStatus, actor identity.Actor) ([]FanoutResult, error)
}

// OrderTransitionRequest is one order-status transition on an order or one of
// its sub-orders. Comment must be non-nil (though it may point to an empty
// string) for approval targets: the invoice comment is captured explicitly.
type OrderTransitionRequest struct {
	SubOrderID     *uint
	Target         models.OrderStatus
	Comment        *string
	ExpectedStatus models.OrderStatus
}

// FanoutResult reports one unit's outcome of an order-level payment-status
// change. Units fail independently; there is no group rollback.
type FanoutResult struct {
	SubOrderID *uint  `json:"sub_order_id,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

type orderService struct {
	repo       repository.OrderRepository
	mode       FulfillmentMode
	classifier shipping.Classifier
	cache      ViewCache
	notifier   Notifier
}

func NewOrderService(repo repository.OrderRepository, mode FulfillmentMode, classifier shipping.Classifier, cache ViewCache, notifier Notifier) OrderService {
	return &orderService{repo: repo, mode: mode, classifier: classifier, cache: cache, notifier: notifier}
}

// unit is the fulfillment unit a transition applies to: one sub-order, or the
// order itself when it has none.
type unit struct {
	order *models.Order
	sub   *models.SubOrder
}

func resolveUnit(order *models.Order, subOrderID *uint) (unit, error) {
	if subOrderID == nil {
		if order.Grouped() {
			return unit{}, validationError("sub_order_id", "required for a grouped order")
		}
		return unit{order: order}, nil
	}
	for i := range order.GroupedOrders {
		if order.GroupedOrders[i].ID == *subOrderID {
			return unit{order: order, sub: &order.GroupedOrders[i]}, nil
		}
	}
	return unit{}, fmt.Errorf("sub-order %d: %w", *subOrderID, repository.ErrNotFound)
}

func (u unit) state() *models.Fulfillment {
	if u.sub != nil {
		return &u.sub.Fulfillment
	}
	return &u.order.Fulfillment
}

func (u unit) vendor() models.Vendor {
	if u.sub != nil {
		return u.sub.Vendor
	}
	return models.Vendor{}
}

// items returns the unit's own items, falling back to the whole order's items
// when the unit has none recorded.
func (u unit) items() []models.OrderItem {
	if u.sub != nil && len(u.sub.Items) > 0 {
		return u.sub.Items
	}
	return u.order.Items
}

func (u unit) subID() *uint {
	if u.sub != nil {
		return &u.sub.ID
	}
	return nil
}

func (u unit) save(tx repository.OrderRepository) error {
	if u.sub != nil {
		return tx.SaveSubOrder(u.sub)
	}
	return tx.Save(u.order)
}

// historyEntry snapshots the unit's full status triple, not a diff.
func (u unit) historyEntry(note, updatedBy string) *models.StatusHistory {
	state := u.state()
	return &models.StatusHistory{
		OrderID:        u.order.ID,
		SubOrderID:     u.subID(),
		Note:           note,
		UpdatedBy:      updatedBy,
		OrderStatus:    state.OrderStatus,
		PaymentStatus:  state.PaymentStatus,
		ShipmentStatus: state.ShipmentStatus,
	}
}

func (s *orderService) TransitionOrderStatus(orderID uint, req OrderTransitionRequest, actor identity.Actor) error {
	err := s.repo.Transaction(func(tx repository.OrderRepository) error {
		order, err := tx.LockByID(orderID)
		if err != nil {
			return err
		}
		u, err := resolveUnit(order, req.SubOrderID)
		if err != nil {
			return err
		}
		state := u.state()
		if req.ExpectedStatus != "" && req.ExpectedStatus != state.OrderStatus {
			return &StaleStateError{Expected: string(req.ExpectedStatus), Current: string(state.OrderStatus)}
		}
		if !rulesFor(s.mode).orderTransitions[state.OrderStatus][req.Target] {
			return guardViolation("order status %q cannot move to %q", state.OrderStatus, req.Target)
		}
		if actor.IsVendor() {
			if !actor.OwnsVendor(u.vendor().VendorID) {
				return guardViolation("vendors may only act on their own sub-orders")
			}
			if state.OrderStatus != models.OrderReceived {
				return guardViolation("vendors may only act while the sub-order is still %q", models.OrderReceived)
			}
		}
		switch {
		case approvalStatus(req.Target):
			if state.PaymentStatus != models.PaymentPaid {
				return guardViolation("order must be paid before approval")
			}
			capability := identity.CapOrderApprove
			if req.Target == models.OrderApprovedControlled {
				capability = identity.CapOrderControlledApprove
			}
			if !actor.Can(capability) {
				return guardViolation("missing %q capability", capability)
			}
			if req.Comment == nil {
				return validationError("comment", "an invoice comment must be supplied on approval")
			}
		case req.Target == models.OrderVendorApproved:
			if state.PaymentStatus != models.PaymentPaid {
				return guardViolation("order must be paid before approval")
			}
			if !actor.IsVendor() && !actor.Can(identity.CapOrderManage) {
				return guardViolation("missing %q capability", identity.CapOrderManage)
			}
		case rejectionStatus(req.Target):
			if !actor.IsVendor() && !actor.Can(identity.CapOrderManage) {
				return guardViolation("missing %q capability", identity.CapOrderManage)
			}
		}

		state.OrderStatus = req.Target
		note := ""
		if req.Comment != nil {
			note = *req.Comment
		}
		if err := u.save(tx); err != nil {
			return err
		}
		return tx.AppendHistory(u.historyEntry(note, actor.UserID))
	})
	if err != nil {
		return err
	}
	s.invalidate(orderID)
	return nil
}

// SetPaymentStatus applies a direct failed/refunded change. Paid is never set
// here; it only enters through the payment-confirmation flow. The change fans
// out to every sub-order of a grouped order, each applied in its own
// transaction with per-unit results.
func (s *orderService) SetPaymentStatus(orderID uint, target models.PaymentStatus, actor identity.Actor) ([]FanoutResult, error) {
	if target != models.PaymentFailed && target != models.PaymentRefunded {
		return nil, validationError("status", "only failed or refunded may be set directly")
	}
	if actor.IsVendor() {
		return nil, guardViolation("vendors cannot change payment status")
	}
	if !actor.Can(identity.CapOrderManage) {
		return nil, guardViolation("missing %q capability", identity.CapOrderManage)
	}

	order, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	var results []FanoutResult
	apply := func(subOrderID *uint) error {
		return s.repo.Transaction(func(tx repository.OrderRepository) error {
			locked, err := tx.LockByID(orderID)
			if err != nil {
				return err
			}
			u, err := resolveUnit(locked, subOrderID)
			if err != nil {
				return err
			}
			u.state().PaymentStatus = target
			if err := u.save(tx); err != nil {
				return err
			}
			return tx.AppendHistory(u.historyEntry("", actor.UserID))
		})
	}

	if !order.Grouped() {
		if err := apply(nil); err != nil {
			return nil, err
		}
		results = append(results, FanoutResult{OK: true})
	} else {
		// The aggregate order mirrors the change too, then each sub-order is
		// updated independently; partial application is reported, not rolled
		// back.
		err := s.repo.Transaction(func(tx repository.OrderRepository) error {
			locked, err := tx.LockByID(orderID)
			if err != nil {
				return err
			}
			locked.Fulfillment.PaymentStatus = target
			return tx.Save(locked)
		})
		if err != nil {
			return nil, err
		}
		for i := range order.GroupedOrders {
			subID := order.GroupedOrders[i].ID
			result := FanoutResult{SubOrderID: &subID, OK: true}
			if err := apply(&subID); err != nil {
				result.OK = false
				result.Error = err.Error()
			}
			results = append(results, result)
		}
	}
	s.invalidate(orderID)
	return results, nil
}

func (s *orderService) GetHistory(orderID uint) ([]models.StatusHistory, error) {
	if _, err := s.repo.GetByID(orderID); err != nil {
		return nil, err
	}
	return s.repo.GetHistory(orderID)
}

func (s *orderService) ListOrders(filter repository.ListFilter, actor identity.Actor) ([]models.Order, error) {
	if actor.IsVendor() {
		if actor.VendorID == "" {
			return nil, guardViolation("vendor identity is missing a vendor id")
		}
		filter.VendorID = actor.VendorID
	}
	orders, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	if actor.IsVendor() {
		// The group roll-up total is never shown to vendors.
		for i := range orders {
			orders[i].GroupTotalAmount = decimal.Zero
		}
	}
	return orders, nil
}

func (s *orderService) invalidate(orderID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrder(orderID); err != nil {
		log.Printf("cache: invalidate order %d: %v", orderID, err)
	}
}
