package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fulfillment/internal/models"
)

// ErrNotFound is returned when an order id does not resolve.
var ErrNotFound = errors.New("order not found")

type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByGroupID(groupID string) ([]models.Order, error)
	List(filter ListFilter) ([]models.Order, error)
	// LockByID loads the order with a row-level lock. Only meaningful inside
	// Transaction; concurrent transitions on the same unit serialize on it.
	LockByID(id uint) (*models.Order, error)
	Save(order *models.Order) error
	SaveSubOrder(sub *models.SubOrder) error
	AppendHistory(entry *models.StatusHistory) error
	GetHistory(orderID uint) ([]models.StatusHistory, error)
	Transaction(fn func(OrderRepository) error) error
}

type ListFilter struct {
	OrderStatus   string
	PaymentStatus string
	VendorID      string
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("GroupedOrders.Items").
		Preload("GroupedOrders").
		Preload("Items").
		Preload("StatusHistory").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByGroupID(groupID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("order_group_id = ?", groupID).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) List(filter ListFilter) ([]models.Order, error) {
	q := r.db.Preload("GroupedOrders")
	if filter.OrderStatus != "" {
		q = q.Where("order_status = ?", filter.OrderStatus)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.VendorID != "" {
		q = q.Where(
			"id IN (?)",
			r.db.Model(&models.SubOrder{}).Select("parent_order_id").Where("vendor_vendor_id = ?", filter.VendorID),
		)
	}
	var orders []models.Order
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) LockByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}}).
		Preload("GroupedOrders.Items").
		Preload("GroupedOrders").
		Preload("Items").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Save(order *models.Order) error {
	// Associations are written explicitly by the services; a plain save here
	// must not cascade into items or sub-orders.
	return r.db.Omit(clause.Associations).Save(order).Error
}

func (r *orderRepository) SaveSubOrder(sub *models.SubOrder) error {
	return r.db.Omit(clause.Associations).Save(sub).Error
}

func (r *orderRepository) AppendHistory(entry *models.StatusHistory) error {
	return r.db.Create(entry).Error
}

func (r *orderRepository) GetHistory(orderID uint) ([]models.StatusHistory, error) {
	var history []models.StatusHistory
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&history).Error
	return history, err
}

func (r *orderRepository) Transaction(fn func(OrderRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&orderRepository{db: tx})
	})
}
