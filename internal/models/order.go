package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Order struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	OrderGroupID     *string         `json:"order_group_id" gorm:"size:8;index"`
	Currency         string          `json:"currency" gorm:"size:3;default:'AED'"`
	GroupTotalAmount decimal.Decimal `json:"group_total_amount" gorm:"type:decimal(14,2)"`
	Type             OrderType       `json:"type" gorm:"default:'normal'"`

	// TransactionDetails holds the JSON-encoded payment ledger. It is parsed
	// and appended to through internal/ledger only.
	TransactionDetails datatypes.JSON `json:"transaction_details"`

	Buyer       Buyer       `json:"user" gorm:"embedded;embeddedPrefix:buyer_"`
	Fulfillment Fulfillment `json:"fulfillment" gorm:"embedded"`

	GroupedOrders []SubOrder      `json:"grouped_orders" gorm:"foreignKey:ParentOrderID"`
	Items         []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	StatusHistory []StatusHistory `json:"status_history" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Grouped reports whether the order fragments into per-vendor sub-orders. An
// ungrouped order is itself the sole fulfillment unit.
func (o *Order) Grouped() bool {
	return len(o.GroupedOrders) > 0
}

// Buyer is the identity snapshot taken at checkout. Read-only here; the
// shipping destination lives in shipment_details, not in the buyer profile.
type Buyer struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
	UserType    string `json:"user_type"`
}

type OrderType string

const (
	OrderTypeNormal OrderType = "normal"
	// OrderTypeRequest originates from a quote and needs manual approval plus
	// out-of-platform payment collection before anything else may change.
	OrderTypeRequest OrderType = "request"
)

type OrderStatus string

const (
	OrderReceived           OrderStatus = "order_received"
	OrderApproved           OrderStatus = "approved"
	OrderApprovedControlled OrderStatus = "approved_controlled"
	OrderRejected           OrderStatus = "rejected"
	OrderAdminRejected      OrderStatus = "admin_rejected"
	OrderCancelled          OrderStatus = "cancelled"
	// Intermediate statuses used only in vendor-fulfillment-center mode.
	OrderVendorApproved OrderStatus = "vendor_approved"
	OrderVendorRejected OrderStatus = "vendor_rejected"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type ShipmentStatus string

const (
	ShipmentPending    ShipmentStatus = "pending"
	ShipmentProcessing ShipmentStatus = "processing"
	ShipmentShipped    ShipmentStatus = "shipped"
	ShipmentDelivered  ShipmentStatus = "delivered"
	ShipmentReturned   ShipmentStatus = "returned"
	ShipmentCancelled  ShipmentStatus = "cancelled"
	// Statuses used only in vendor-fulfillment-center mode.
	ShipmentVendorShipped ShipmentStatus = "vendor_shipped"
	ShipmentAdminReceived ShipmentStatus = "admin_received"
)

// TerminalShipment reports whether no further shipment transition is legal.
func TerminalShipment(s ShipmentStatus) bool {
	return s == ShipmentDelivered || s == ShipmentReturned || s == ShipmentCancelled
}
