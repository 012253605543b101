package services

import (
	"log"

	"fulfillment/internal/identity"
	"fulfillment/internal/models"
	"fulfillment/internal/money"
	"fulfillment/internal/repository"
	"fulfillment/internal/shipping"
	"fulfillment/pkg/carrier"
)

// CarrierAPI is the pickup-scheduling collaborator, satisfied by
// *carrier.Client.
type CarrierAPI interface {
	SchedulePickup(req carrier.PickupRequest) (*carrier.PickupResponse, error)
}

type ShippingService interface {
	TransitionShipment(orderID uint, req ShipmentTransitionRequest, actor identity.Actor) error
}

// ShipmentTransitionRequest is one shipment-status transition. Tracking
// number and provider are required only when the target triggers a shipment
// and the route classifies as manual.
type ShipmentTransitionRequest struct {
	SubOrderID     *uint
	Target         models.ShipmentStatus
	TrackingNumber string
	Provider       string
	ExpectedStatus models.ShipmentStatus
}

type shippingService struct {
	repo       repository.OrderRepository
	mode       FulfillmentMode
	classifier shipping.Classifier
	carrier    CarrierAPI
	cache      ViewCache
}

func NewShippingService(repo repository.OrderRepository, mode FulfillmentMode, classifier shipping.Classifier, carrierAPI CarrierAPI, cache ViewCache) ShippingService {
	return &shippingService{repo: repo, mode: mode, classifier: classifier, carrier: carrierAPI, cache: cache}
}

func (s *shippingService) TransitionShipment(orderID uint, req ShipmentTransitionRequest, actor identity.Actor) error {
	rules := rulesFor(s.mode)

	// Validate against current state and, when the integrated route applies,
	// schedule the pickup before anything mutates. A failed pickup call must
	// leave no local trace.
	order, err := s.repo.GetByID(orderID)
	if err != nil {
		return err
	}
	u, err := resolveUnit(order, req.SubOrderID)
	if err != nil {
		return err
	}
	if err := s.checkTransition(u, req, actor, rules); err != nil {
		return err
	}

	var pickup *carrier.PickupResponse
	var route shipping.Route
	if req.Target == rules.carrierTrigger {
		details := models.ParseShipmentDetails(u.state().ShipmentDetails)
		route = s.classifier.ClassifyUnit(u.vendor(), details)
		switch route {
		case shipping.RouteManual:
			if len(req.TrackingNumber) < 5 {
				return validationError("tracking_number", "at least 5 characters required for a manual shipment")
			}
			if req.Provider == "" {
				return validationError("provider", "required for a manual shipment")
			}
		case shipping.RouteCarrierIntegrated:
			items := u.items()
			weight, _ := money.TotalWeight(items).Float64()
			pickup, err = s.carrier.SchedulePickup(carrier.PickupRequest{
				OrderID:      u.state().OrderCode,
				WeightKg:     weight,
				PackageCount: money.TotalQuantity(items),
				TargetStatus: string(req.Target),
			})
			if err != nil {
				return &ExternalServiceError{Service: "carrier pickup", Err: err}
			}
		}
	}

	err = s.repo.Transaction(func(tx repository.OrderRepository) error {
		locked, err := tx.LockByID(orderID)
		if err != nil {
			return err
		}
		lu, err := resolveUnit(locked, req.SubOrderID)
		if err != nil {
			return err
		}
		// Re-check under the lock; a concurrent transition may have won.
		if err := s.checkTransition(lu, req, actor, rules); err != nil {
			return err
		}
		state := lu.state()

		if req.Target == rules.carrierTrigger {
			details := models.ParseShipmentDetails(state.ShipmentDetails)
			if pickup != nil {
				details.TrackingNumber = pickup.Data.TrackingNumber
				details.LabelURL = pickup.Data.LabelURL
				details.PickupConfirmation = pickup.Data.PickupConfirmation
				details.PickupDate = pickup.Data.PickupDate
			} else {
				details.TrackingNumber = req.TrackingNumber
				details.Provider = req.Provider
			}
			encoded, err := details.Encode()
			if err != nil {
				return err
			}
			state.ShipmentDetails = encoded
		}

		state.ShipmentStatus = req.Target
		if err := lu.save(tx); err != nil {
			return err
		}
		return tx.AppendHistory(lu.historyEntry("", actor.UserID))
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateOrder(orderID); err != nil {
			log.Printf("cache: invalidate order %d: %v", orderID, err)
		}
	}
	return nil
}

func (s *shippingService) checkTransition(u unit, req ShipmentTransitionRequest, actor identity.Actor, rules modeRules) error {
	state := u.state()
	if req.ExpectedStatus != "" && req.ExpectedStatus != state.ShipmentStatus {
		return &StaleStateError{Expected: string(req.ExpectedStatus), Current: string(state.ShipmentStatus)}
	}
	if models.TerminalShipment(state.ShipmentStatus) {
		return guardViolation("shipment status %q is terminal", state.ShipmentStatus)
	}
	if !rules.shipmentTransitions[state.ShipmentStatus][req.Target] {
		return guardViolation("shipment status %q cannot move to %q", state.ShipmentStatus, req.Target)
	}
	if actor.IsVendor() {
		if !actor.OwnsVendor(u.vendor().VendorID) {
			return guardViolation("vendors may only act on their own sub-orders")
		}
		if state.PaymentStatus != models.PaymentPaid {
			return guardViolation("shipment cannot progress before payment")
		}
		if state.OrderStatus != models.OrderApproved && state.OrderStatus != models.OrderApprovedControlled {
			return guardViolation("shipment cannot progress before the order is approved")
		}
	} else if !actor.Can(identity.CapOrderManage) {
		return guardViolation("missing %q capability", identity.CapOrderManage)
	}
	return nil
}
