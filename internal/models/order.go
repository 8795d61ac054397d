package models

import "time"

// OrderStatus defines possible order statuses
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // Placed, not yet accepted
	OrderStatusPreparing OrderStatus = "preparing" // Kitchen is working on it
	OrderStatusReady     OrderStatus = "ready"     // Ready for pickup/serving
	OrderStatusServed    OrderStatus = "served"    // Delivered to the table
	OrderStatusCompleted OrderStatus = "completed" // Paid and closed
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderSource identifies where an order was placed
type OrderSource string

const (
	OrderSourcePOS        OrderSource = "pos"
	OrderSourceQR         OrderSource = "qr"         // Guest self-ordering via table QR code
	OrderSourceAggregator OrderSource = "aggregator" // Delivery platform tablet
)

// OrderItem is a single line on an order
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes,omitempty"`
	Status   string  `json:"status,omitempty"` // pending | preparing | ready | served
}

// Order is the POS-side order record shared between devices
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	TableNumber int         `json:"tableNumber,omitempty"`
	Source      OrderSource `json:"source,omitempty"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	Total       float64     `json:"total"`
	StaffID     string      `json:"staffId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// KitchenItem is a kitchen-facing view of one order line
type KitchenItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Station  string `json:"station,omitempty"` // kitchen | bar
	Notes    string `json:"notes,omitempty"`
	Status   string `json:"status"`
}

// KitchenOrder is the KOT (kitchen order ticket) derived from an Order,
// consumed by the kitchen/bar display domain
type KitchenOrder struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"orderId"`
	OrderNumber string        `json:"orderNumber"`
	TableNumber int           `json:"tableNumber,omitempty"`
	Items       []KitchenItem `json:"items"`
	Status      OrderStatus   `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}
