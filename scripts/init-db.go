package main

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fulfillment/internal/config"
	"fulfillment/internal/database"
	"fulfillment/internal/migrations"
	"fulfillment/internal/models"
)

func main() {
	fmt.Println("Initializing database...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := migrations.Reset(db); err != nil {
		log.Fatal("Failed to reset schema:", err)
	}

	fmt.Println("Seeding sample orders...")
	if err := seed(db, cfg.DefaultCurrency); err != nil {
		log.Fatal("Failed to seed data:", err)
	}

	fmt.Println("Database initialized successfully")
}

func seed(db *gorm.DB, currency string) error {
	groupID := "GRP-A1B2"
	vendorID := "vendor-42"
	aeDetails := datatypes.JSON(`{"country":"AE"}`)
	usDetails := datatypes.JSON(`{"country":"US"}`)

	order := models.Order{
		OrderGroupID:     &groupID,
		Currency:         currency,
		GroupTotalAmount: decimal.RequireFromString("315.00"),
		Type:             models.OrderTypeNormal,
		Buyer: models.Buyer{
			Name:        "Demo Buyer",
			Username:    "demo.buyer",
			Email:       "buyer@example.com",
			Phone:       "+971500000000",
			CountryCode: "AE",
			UserType:    "customer",
		},
		Fulfillment: models.Fulfillment{
			OrderCode:       "ORD-1001",
			OrderStatus:     models.OrderReceived,
			PaymentStatus:   models.PaymentPending,
			ShipmentStatus:  models.ShipmentPending,
			ShipmentDetails: aeDetails,
			TotalAmount:     decimal.RequireFromString("315.00"),
			VATAmount:       decimal.RequireFromString("15.00"),
		},
		GroupedOrders: []models.SubOrder{
			{
				Vendor: models.Vendor{VendorID: &vendorID, Name: "Demo Vendor", Country: "US"},
				Fulfillment: models.Fulfillment{
					OrderCode:       "ORD-1001-A",
					OrderStatus:     models.OrderReceived,
					PaymentStatus:   models.PaymentPending,
					ShipmentStatus:  models.ShipmentPending,
					ShipmentDetails: usDetails,
					TotalAmount:     decimal.RequireFromString("210.00"),
					VATAmount:       decimal.RequireFromString("10.00"),
					AdminCommission: decimal.RequireFromString("20.00"),
				},
				Items: []models.OrderItem{
					{
						OrderID:     1,
						ProductName: "Widget",
						Quantity:    2,
						Price:       decimal.RequireFromString("100.00"),
						BasePrice:   decimal.RequireFromString("90.00"),
						Weight:      decimal.RequireFromString("0.500"),
					},
				},
			},
			{
				Fulfillment: models.Fulfillment{
					OrderCode:       "ORD-1001-B",
					OrderStatus:     models.OrderReceived,
					PaymentStatus:   models.PaymentPending,
					ShipmentStatus:  models.ShipmentPending,
					ShipmentDetails: aeDetails,
					TotalAmount:     decimal.RequireFromString("105.00"),
					VATAmount:       decimal.RequireFromString("5.00"),
				},
				Items: []models.OrderItem{
					{
						OrderID:     1,
						ProductName: "Gadget",
						Quantity:    1,
						Price:       decimal.RequireFromString("100.00"),
						BasePrice:   decimal.RequireFromString("100.00"),
					},
				},
			},
		},
	}
	return db.Create(&order).Error
}
