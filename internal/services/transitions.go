package services

import "fulfillment/internal/models"

// FulfillmentMode selects which subset of the status vocabulary is legal for a
// deployment: direct shipment, or routing through the vendor fulfillment
// center with its intermediate vendor_* statuses.
type FulfillmentMode string

const (
	ModeDirect            FulfillmentMode = "direct"
	ModeVendorFulfillment FulfillmentMode = "vendor_fulfillment"
)

type modeRules struct {
	orderTransitions    map[models.OrderStatus]map[models.OrderStatus]bool
	shipmentTransitions map[models.ShipmentStatus]map[models.ShipmentStatus]bool
	// carrierTrigger is the shipment status whose entry fires the route
	// classifier and, on the integrated route, the pickup call.
	carrierTrigger models.ShipmentStatus
}

var directRules = modeRules{
	orderTransitions: map[models.OrderStatus]map[models.OrderStatus]bool{
		models.OrderReceived: {
			models.OrderApproved:           true,
			models.OrderApprovedControlled: true,
			models.OrderRejected:           true,
			models.OrderAdminRejected:      true,
			models.OrderCancelled:          true,
		},
	},
	shipmentTransitions: map[models.ShipmentStatus]map[models.ShipmentStatus]bool{
		models.ShipmentPending: {
			models.ShipmentProcessing: true,
			models.ShipmentCancelled:  true,
			models.ShipmentReturned:   true,
		},
		models.ShipmentProcessing: {
			models.ShipmentShipped:   true,
			models.ShipmentCancelled: true,
			models.ShipmentReturned:  true,
		},
		models.ShipmentShipped: {
			models.ShipmentDelivered: true,
			models.ShipmentCancelled: true,
			models.ShipmentReturned:  true,
		},
	},
	carrierTrigger: models.ShipmentShipped,
}

var vendorFulfillmentRules = modeRules{
	orderTransitions: map[models.OrderStatus]map[models.OrderStatus]bool{
		models.OrderReceived: {
			models.OrderVendorApproved: true,
			models.OrderVendorRejected: true,
			models.OrderAdminRejected:  true,
			models.OrderCancelled:      true,
		},
		models.OrderVendorApproved: {
			models.OrderApproved:           true,
			models.OrderApprovedControlled: true,
			models.OrderAdminRejected:      true,
			models.OrderCancelled:          true,
		},
	},
	shipmentTransitions: map[models.ShipmentStatus]map[models.ShipmentStatus]bool{
		models.ShipmentPending: {
			models.ShipmentProcessing: true,
			models.ShipmentCancelled:  true,
			models.ShipmentReturned:   true,
		},
		models.ShipmentProcessing: {
			models.ShipmentVendorShipped: true,
			models.ShipmentCancelled:     true,
			models.ShipmentReturned:      true,
		},
		models.ShipmentVendorShipped: {
			models.ShipmentAdminReceived: true,
			models.ShipmentCancelled:     true,
			models.ShipmentReturned:      true,
		},
		models.ShipmentAdminReceived: {
			models.ShipmentShipped:   true,
			models.ShipmentCancelled: true,
			models.ShipmentReturned:  true,
		},
		models.ShipmentShipped: {
			models.ShipmentDelivered: true,
			models.ShipmentCancelled: true,
			models.ShipmentReturned:  true,
		},
	},
	carrierTrigger: models.ShipmentProcessing,
}

func rulesFor(mode FulfillmentMode) modeRules {
	if mode == ModeVendorFulfillment {
		return vendorFulfillmentRules
	}
	return directRules
}

// approvalStatus reports whether the target gates on paid payment, an
// approval capability and an explicitly supplied invoice comment.
func approvalStatus(s models.OrderStatus) bool {
	return s == models.OrderApproved || s == models.OrderApprovedControlled
}

// rejectionStatus reports the statuses any manage-capable admin or the owning
// vendor may always set from order_received, no comment needed.
func rejectionStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderRejected, models.OrderAdminRejected, models.OrderCancelled, models.OrderVendorRejected:
		return true
	}
	return false
}
