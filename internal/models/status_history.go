package models

import "time"

// StatusHistory is one append-only audit row per accepted transition. Each row
// snapshots all three status dimensions, not just the one that changed.
type StatusHistory struct {
	ID         uint  `json:"id" gorm:"primaryKey"`
	OrderID    uint  `json:"order_id" gorm:"not null;index"`
	SubOrderID *uint `json:"sub_order_id" gorm:"index"`

	Note      string `json:"note" gorm:"type:text"`
	UpdatedBy string `json:"updated_by" gorm:"not null"`

	OrderStatus    OrderStatus    `json:"status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	ShipmentStatus ShipmentStatus `json:"shipment_status"`

	CreatedAt time.Time `json:"timestamp"`
}
