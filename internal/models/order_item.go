package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItem struct {
	ID         uint  `json:"id" gorm:"primaryKey"`
	OrderID    uint  `json:"order_id" gorm:"index"`
	SubOrderID *uint `json:"sub_order_id" gorm:"index"`

	ProductName string `json:"product_name" gorm:"not null"`
	ProductSKU  string `json:"product_sku"`

	Quantity int `json:"quantity" gorm:"not null"`
	// Price is the unit price charged to the buyer; BasePrice is the vendor's
	// price before the platform markup.
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null"`
	BasePrice decimal.Decimal `json:"base_price" gorm:"type:decimal(14,2)"`
	// Weight per unit in kg; zero means unknown and defaults to 1 for pickups.
	Weight decimal.Decimal `json:"weight" gorm:"type:decimal(10,3)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
