package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/models"
	"fulfillment/internal/repository"
	"fulfillment/pkg/carrier"
)

// fakeRepo is an in-memory OrderRepository. Reads hand out deep copies so a
// rejected transition cannot leak partial mutations into the store.
type fakeRepo struct {
	orders  map[uint]*models.Order
	history []models.StatusHistory
	nextID  uint
}

func newFakeRepo(orders ...*models.Order) *fakeRepo {
	r := &fakeRepo{orders: make(map[uint]*models.Order), nextID: 1}
	for _, o := range orders {
		r.orders[o.ID] = copyOrder(o)
	}
	return r
}

func copyOrder(o *models.Order) *models.Order {
	b, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	var out models.Order
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

func (r *fakeRepo) GetByID(id uint) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *fakeRepo) LockByID(id uint) (*models.Order, error) {
	return r.GetByID(id)
}

func (r *fakeRepo) GetByGroupID(groupID string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		if o.OrderGroupID != nil && *o.OrderGroupID == groupID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (r *fakeRepo) List(filter repository.ListFilter) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		if filter.OrderStatus != "" && string(o.Fulfillment.OrderStatus) != filter.OrderStatus {
			continue
		}
		if filter.PaymentStatus != "" && string(o.Fulfillment.PaymentStatus) != filter.PaymentStatus {
			continue
		}
		if filter.VendorID != "" && !orderHasVendor(o, filter.VendorID) {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	return out, nil
}

func orderHasVendor(o *models.Order, vendorID string) bool {
	for _, sub := range o.GroupedOrders {
		if sub.Vendor.VendorID != nil && *sub.Vendor.VendorID == vendorID {
			return true
		}
	}
	return false
}

func (r *fakeRepo) Save(order *models.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	saved := copyOrder(order)
	// A plain save must not cascade into sub-orders.
	saved.GroupedOrders = stored.GroupedOrders
	r.orders[order.ID] = saved
	return nil
}

func (r *fakeRepo) SaveSubOrder(sub *models.SubOrder) error {
	order, ok := r.orders[sub.ParentOrderID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range order.GroupedOrders {
		if order.GroupedOrders[i].ID == sub.ID {
			b, _ := json.Marshal(sub)
			var copied models.SubOrder
			json.Unmarshal(b, &copied)
			order.GroupedOrders[i] = copied
			return nil
		}
	}
	return fmt.Errorf("sub-order %d: %w", sub.ID, repository.ErrNotFound)
}

func (r *fakeRepo) AppendHistory(entry *models.StatusHistory) error {
	entry.ID = r.nextID
	r.nextID++
	entry.CreatedAt = time.Now()
	r.history = append(r.history, *entry)
	return nil
}

func (r *fakeRepo) GetHistory(orderID uint) ([]models.StatusHistory, error) {
	var out []models.StatusHistory
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeRepo) Transaction(fn func(repository.OrderRepository) error) error {
	return fn(r)
}

type fakeCarrier struct {
	resp  *carrier.PickupResponse
	err   error
	calls []carrier.PickupRequest
}

func (f *fakeCarrier) SchedulePickup(req carrier.PickupRequest) (*carrier.PickupResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// fakeCache is an in-memory ViewCache keyed like the redis client:
// one cached rendering per (order, scope).
type fakeCache struct {
	views         map[string][]byte
	refreshDue    map[uint]bool
	invalidateErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{views: make(map[string][]byte), refreshDue: make(map[uint]bool)}
}

func cacheKey(orderID uint, scope string) string {
	return fmt.Sprintf("%d:%s", orderID, scope)
}

func (f *fakeCache) GetOrderView(orderID uint, scope string) ([]byte, error) {
	payload, ok := f.views[cacheKey(orderID, scope)]
	if !ok {
		return nil, fmt.Errorf("order view not cached")
	}
	return payload, nil
}

func (f *fakeCache) SetOrderView(orderID uint, scope string, payload []byte) error {
	f.views[cacheKey(orderID, scope)] = payload
	return nil
}

func (f *fakeCache) InvalidateOrder(orderID uint) error {
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	prefix := fmt.Sprintf("%d:", orderID)
	for k := range f.views {
		if strings.HasPrefix(k, prefix) {
			delete(f.views, k)
		}
	}
	return nil
}

func (f *fakeCache) ScheduleInvoiceRefresh(orderID uint) error {
	f.refreshDue[orderID] = true
	return nil
}

func (f *fakeCache) InvoiceRefreshDue(orderID uint) (bool, error) {
	return f.refreshDue[orderID], nil
}

type fakeNotifier struct {
	readIDs []string
}

func (f *fakeNotifier) MarkOrderRead(entityID string) error {
	f.readIDs = append(f.readIDs, entityID)
	return nil
}
