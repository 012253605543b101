package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"fulfillment/internal/config"
	"fulfillment/internal/database"
	"fulfillment/internal/handlers"
	"fulfillment/internal/redis"
	"fulfillment/internal/repository"
	"fulfillment/internal/services"
	"fulfillment/internal/shipping"
	"fulfillment/pkg/carrier"
	"fulfillment/pkg/notify"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL, cfg.CacheTTL, cfg.InvoiceRefreshDelay)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Initialize collaborator clients
	carrierClient := carrier.NewClient(cfg.CarrierAPIURL, cfg.CarrierAPIKey, cfg.CarrierAccount, cfg.CarrierName)
	notifyClient := notify.NewClient(cfg.NotifyAPIURL, cfg.NotifyAPIKey)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	classifier := shipping.NewClassifier(cfg.HomeCountry)
	mode := services.FulfillmentMode(cfg.FulfillmentMode)
	orderService := services.NewOrderService(orderRepo, mode, classifier, redisClient, notifyClient)
	paymentService := services.NewPaymentService(orderRepo, redisClient)
	shippingService := services.NewShippingService(orderRepo, mode, classifier, carrierClient, redisClient)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService, paymentService, shippingService)

	// Setup routes
	router := gin.Default()

	api := router.Group("/api")
	api.Use(handlers.AuthMiddleware(cfg.ServiceKeyHash))
	{
		api.GET("/orders", orderHandler.ListOrders)
		api.GET("/orders/:id", orderHandler.GetOrder)
		api.GET("/orders/:id/history", orderHandler.GetHistory)
		api.GET("/orders/:id/payments", orderHandler.ViewPayments)

		api.POST("/orders/:id/status", orderHandler.TransitionOrderStatus)
		api.POST("/orders/:id/payment-status", orderHandler.SetPaymentStatus)
		api.POST("/orders/:id/payments/confirm", orderHandler.ConfirmPayment)
		api.POST("/orders/:id/shipment-status", orderHandler.TransitionShipment)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
