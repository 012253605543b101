package shipping

import (
	"fulfillment/internal/geo"
	"fulfillment/internal/models"
)

// Route is the shipment path for a fulfillment unit.
type Route string

const (
	// RouteManual: admin enters tracking number and provider by hand.
	RouteManual Route = "manual"
	// RouteCarrierIntegrated: pickup is scheduled through the carrier API.
	RouteCarrierIntegrated Route = "carrier_integrated"
)

// Classifier decides whether a vendor→buyer shipment can go through the
// integrated carrier. The carrier account is registered in a single home
// country, so a shipment that neither originates nor terminates there has to
// be tracked manually.
//
// TODO(shipping): drop this once the carrier supports multi-country shipper
// accounts; the state machine only depends on the Route value.
type Classifier struct {
	HomeCountry string
}

func NewClassifier(homeCountry string) Classifier {
	if homeCountry == "" {
		homeCountry = "AE"
	}
	return Classifier{HomeCountry: geo.Normalize(homeCountry)}
}

// Classify is a pure function of the two address fields. Empty input defaults
// to the home country.
func (c Classifier) Classify(vendorCountry, shipmentCountry string) Route {
	origin := c.normalizeOrHome(vendorCountry)
	destination := c.normalizeOrHome(shipmentCountry)
	if origin != c.HomeCountry && destination != c.HomeCountry {
		return RouteManual
	}
	return RouteCarrierIntegrated
}

// ClassifyUnit classifies against the vendor's country on file and the
// delivery-address snapshot taken at checkout. The buyer's live profile
// country is deliberately not consulted: registered country and shipping
// destination may differ.
func (c Classifier) ClassifyUnit(vendor models.Vendor, details models.ShipmentDetails) Route {
	return c.Classify(vendor.OriginCountry(), details.Country)
}

func (c Classifier) normalizeOrHome(raw string) string {
	if raw == "" {
		return c.HomeCountry
	}
	return geo.Normalize(raw)
}
