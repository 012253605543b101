package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Fulfillment is the lifecycle and financial state of one fulfillment unit.
// It is embedded both in SubOrder and in Order, because an ungrouped order
// carries this state directly.
type Fulfillment struct {
	OrderCode      string         `json:"order_id" gorm:"column:order_code;size:16;index"`
	OrderStatus    OrderStatus    `json:"order_status" gorm:"default:'order_received'"`
	PaymentStatus  PaymentStatus  `json:"payment_status" gorm:"default:'pending'"`
	ShipmentStatus ShipmentStatus `json:"shipment_status" gorm:"default:'pending'"`

	// ShipmentDetails is a JSON blob: tracking number, provider and the
	// delivery-address snapshot taken at order creation.
	ShipmentDetails datatypes.JSON `json:"shipment_details"`

	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,2)"`
	VATAmount       decimal.Decimal `json:"vat_amount" gorm:"type:decimal(14,2)"`
	TotalShipping   decimal.Decimal `json:"total_shipping" gorm:"type:decimal(14,2)"`
	TotalPacking    decimal.Decimal `json:"total_packing" gorm:"type:decimal(14,2)"`
	AdminCommission decimal.Decimal `json:"admin_commission" gorm:"type:decimal(14,2)"`
}

type SubOrder struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	ParentOrderID uint        `json:"parent_order_id" gorm:"not null;index"`
	Vendor        Vendor      `json:"vendor" gorm:"embedded;embeddedPrefix:vendor_"`
	Fulfillment   Fulfillment `json:"fulfillment" gorm:"embedded"`
	Items         []OrderItem `json:"items" gorm:"foreignKey:SubOrderID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Vendor is the denormalized vendor summary snapshotted onto a sub-order.
// A nil or "admin" id means the platform fulfills the unit itself.
type Vendor struct {
	VendorID       *string `json:"id"`
	Name           string  `json:"name"`
	Country        string  `json:"country"`
	ProfileCountry string  `json:"profile_country"`
}

// IsPlatform reports whether the unit is platform-fulfilled rather than owned
// by a real vendor.
func (v Vendor) IsPlatform() bool {
	return v.VendorID == nil || *v.VendorID == "" || *v.VendorID == "admin"
}

// OriginCountry is the vendor's country on file, preferring the profile value.
func (v Vendor) OriginCountry() string {
	if v.ProfileCountry != "" {
		return v.ProfileCountry
	}
	return v.Country
}

// ShipmentDetails is the parsed form of the shipment_details blob.
type ShipmentDetails struct {
	TrackingNumber     string `json:"tracking_number,omitempty"`
	Provider           string `json:"provider,omitempty"`
	PickupConfirmation string `json:"pickup_confirmation,omitempty"`
	PickupDate         string `json:"pickup_date,omitempty"`
	LabelURL           string `json:"label_url,omitempty"`
	Country            string `json:"country,omitempty"`
}

// ParseShipmentDetails decodes the blob, returning the zero value on missing
// or malformed data. Shipment routing must degrade, not fail, on bad blobs.
func ParseShipmentDetails(raw datatypes.JSON) ShipmentDetails {
	var d ShipmentDetails
	if len(raw) == 0 {
		return d
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return ShipmentDetails{}
	}
	return d
}

// Encode serializes the details back into the storage blob form.
func (d ShipmentDetails) Encode() (datatypes.JSON, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
