package store

import (
	"sync"
	"time"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

// Persister is the optional local-storage side effect applied alongside
// the in-memory store. Failures are the persister's problem to log; the
// sync path never blocks on it.
type Persister interface {
	SaveOrder(order models.Order, kitchenOrder models.KitchenOrder) error
	UpdateOrderStatus(orderID string, status models.OrderStatus) error
}

// ActiveOrders is the in-memory view of open orders every device keeps.
// It holds no history: terminal orders drop out, and the whole map is
// rebuilt from a sync_state snapshot on (re)connect.
type ActiveOrders struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

// NewActiveOrders creates an empty store
func NewActiveOrders() *ActiveOrders {
	return &ActiveOrders{
		orders: make(map[string]models.Order),
	}
}

// Apply inserts or replaces an order
func (s *ActiveOrders) Apply(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isTerminal(order.Status) {
		delete(s.orders, order.ID)
		return
	}
	s.orders[order.ID] = order
}

// ApplyStatus sets an order's status. Last write observed wins; there
// is no timestamp or vector-clock comparison between transports (see
// DESIGN.md).
func (s *ActiveOrders) ApplyStatus(orderID string, status models.OrderStatus, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return
	}
	if isTerminal(status) {
		delete(s.orders, orderID)
		return
	}
	order.Status = status
	if !at.IsZero() {
		order.UpdatedAt = at
	}
	s.orders[orderID] = order
}

// ApplyItemStatus sets a single line's status
func (s *ActiveOrders) ApplyItemStatus(orderID, itemID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return
	}
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items[i].Status = status
		}
	}
	s.orders[orderID] = order
}

// Replace swaps in a full snapshot, dropping everything held before
func (s *ActiveOrders) Replace(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[string]models.Order, len(orders))
	for _, o := range orders {
		if !isTerminal(o.Status) {
			s.orders[o.ID] = o
		}
	}
}

// Snapshot returns a copy of all active orders
func (s *ActiveOrders) Snapshot() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out
}

// Get looks up one order
func (s *ActiveOrders) Get(orderID string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	return o, ok
}

// Len returns the number of active orders
func (s *ActiveOrders) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Clear drops all orders
func (s *ActiveOrders) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]models.Order)
}

func isTerminal(status models.OrderStatus) bool {
	return status == models.OrderStatusCompleted || status == models.OrderStatusCancelled
}
