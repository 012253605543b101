package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fulfillment/internal/models"
	"fulfillment/internal/repository"
	"fulfillment/internal/services"
)

type OrderHandler struct {
	orderService    services.OrderService
	paymentService  services.PaymentService
	shippingService services.ShippingService
}

func NewOrderHandler(
	orderService services.OrderService,
	paymentService services.PaymentService,
	shippingService services.ShippingService,
) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		paymentService:  paymentService,
		shippingService: shippingService,
	}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := repository.ListFilter{
		OrderStatus:   c.Query("order_status"),
		PaymentStatus: c.Query("payment_status"),
		VendorID:      c.Query("vendor_id"),
	}
	orders, err := h.orderService.ListOrders(filter, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	view, err := h.orderService.GetOrder(id, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *OrderHandler) GetHistory(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	history, err := h.orderService.GetHistory(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *OrderHandler) TransitionOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req struct {
		SubOrderID     *uint   `json:"sub_order_id"`
		Target         string  `json:"target" binding:"required"`
		Comment        *string `json:"comment"`
		ExpectedStatus string  `json:"expected_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	err := h.orderService.TransitionOrderStatus(id, services.OrderTransitionRequest{
		SubOrderID:     req.SubOrderID,
		Target:         models.OrderStatus(req.Target),
		Comment:        req.Comment,
		ExpectedStatus: models.OrderStatus(req.ExpectedStatus),
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *OrderHandler) SetPaymentStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	results, err := h.orderService.SetPaymentStatus(id, models.PaymentStatus(req.Status), currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req struct {
		PaymentMode   string  `json:"payment_mode" binding:"required"`
		TransactionID string  `json:"transaction_id"`
		SessionID     string  `json:"session_id"`
		Amount        *string `json:"amount"`
		Currency      string  `json:"currency"`
		Notes         string  `json:"notes"`
		SenderBank    string  `json:"sender_bank"`
		CollectorName string  `json:"collector_name"`
		ChequeNumber  string  `json:"cheque_number"`
		ChequeBank    string  `json:"cheque_bank"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	input := services.ConfirmPaymentInput{
		PaymentMode:   req.PaymentMode,
		TransactionID: req.TransactionID,
		SessionID:     req.SessionID,
		Currency:      req.Currency,
		Notes:         req.Notes,
		SenderBank:    req.SenderBank,
		CollectorName: req.CollectorName,
		ChequeNumber:  req.ChequeNumber,
		ChequeBank:    req.ChequeBank,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		input.Amount = &amount
	}
	if err := h.paymentService.ConfirmPayment(id, input, currentActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

func (h *OrderHandler) ViewPayments(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	entries, err := h.paymentService.ViewPayments(id, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": entries})
}

func (h *OrderHandler) TransitionShipment(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req struct {
		SubOrderID     *uint  `json:"sub_order_id"`
		Target         string `json:"target" binding:"required"`
		TrackingNumber string `json:"tracking_number"`
		Provider       string `json:"provider"`
		ExpectedStatus string `json:"expected_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	err := h.shippingService.TransitionShipment(id, services.ShipmentTransitionRequest{
		SubOrderID:     req.SubOrderID,
		Target:         models.ShipmentStatus(req.Target),
		TrackingNumber: req.TrackingNumber,
		Provider:       req.Provider,
		ExpectedStatus: models.ShipmentStatus(req.ExpectedStatus),
	}, currentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps the domain error taxonomy onto HTTP statuses. Guard and
// validation failures made no mutation; external failures are retryable.
func respondError(c *gin.Context, err error) {
	var guard *services.GuardViolationError
	var validation *services.ValidationError
	var stale *services.StaleStateError
	var external *services.ExternalServiceError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &guard):
		c.JSON(http.StatusForbidden, gin.H{"error": guard.Reason})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &stale):
		c.JSON(http.StatusConflict, gin.H{"error": stale.Error()})
	case errors.As(err, &external):
		c.JSON(http.StatusBadGateway, gin.H{"error": external.Error(), "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
