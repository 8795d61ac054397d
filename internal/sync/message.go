package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

// MessageType tags every sync frame. All frames are JSON objects with a
// required "type" field; the tag values match the cloud wire format.
type MessageType string

const (
	TypeOrderCreated       MessageType = "order_created"
	TypeOrderStatusUpdate  MessageType = "order_status_update"
	TypeItemStatusUpdate   MessageType = "item_status_update"
	TypeSyncState          MessageType = "sync_state"
	TypeStaffSync          MessageType = "staff_sync"
	TypeStaffAdded         MessageType = "staff_added"
	TypeStaffUpdated       MessageType = "staff_updated"
	TypeStaffRemoved       MessageType = "staff_removed"
	TypeFloorPlanSync      MessageType = "floorplan_sync"
	TypeSectionAdded       MessageType = "section_added"
	TypeSectionRemoved     MessageType = "section_removed"
	TypeTableAdded         MessageType = "table_added"
	TypeTableRemoved       MessageType = "table_removed"
	TypeTableStatusUpdated MessageType = "table_status_updated"
	TypeStaffAssigned      MessageType = "staff_assigned"
	TypeRequestSync        MessageType = "request_sync"
	TypeQROrderCreated     MessageType = "qr_order_created"
	TypeServiceRequest     MessageType = "service_request"
	TypeServiceRequestAck  MessageType = "service_request_acknowledged"
	TypeServiceRequestDone MessageType = "service_request_resolved"
	TypeItemReady          MessageType = "item_ready"
	TypePong               MessageType = "pong"
)

// Message is the closed set of sync frames. Adding a message kind means
// adding a variant here and a case to the router's dispatch, which the
// compiler checks.
type Message interface {
	Kind() MessageType
}

// deduplicated is implemented by order-bearing messages that must be
// applied at most once per 5-minute window, regardless of which
// transport delivered them
type deduplicated interface {
	DedupID() string
}

// OrderCreated announces a new order together with its kitchen ticket
type OrderCreated struct {
	Order        models.Order        `json:"order"`
	KitchenOrder models.KitchenOrder `json:"kitchenOrder"`
}

func (OrderCreated) Kind() MessageType { return TypeOrderCreated }
func (m OrderCreated) DedupID() string { return m.Order.ID }

// QROrderCreated announces an order placed by a guest via table QR code
type QROrderCreated struct {
	Order        models.Order        `json:"order"`
	KitchenOrder models.KitchenOrder `json:"kitchenOrder"`
}

func (QROrderCreated) Kind() MessageType { return TypeQROrderCreated }
func (m QROrderCreated) DedupID() string { return m.Order.ID }

// OrderStatusUpdate moves an order through its lifecycle
type OrderStatusUpdate struct {
	OrderID     string             `json:"orderId"`
	Status      models.OrderStatus `json:"status"`
	OrderNumber string             `json:"orderNumber,omitempty"`
	TableNumber int                `json:"tableNumber,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt,omitempty"`
}

func (OrderStatusUpdate) Kind() MessageType { return TypeOrderStatusUpdate }

// ItemStatusUpdate moves a single order line through its lifecycle
type ItemStatusUpdate struct {
	OrderID  string `json:"orderId"`
	ItemID   string `json:"itemId"`
	Status   string `json:"status"`
	ItemName string `json:"itemName,omitempty"`
}

func (ItemStatusUpdate) Kind() MessageType { return TypeItemStatusUpdate }

// SyncState is the full active-order snapshot exchanged on (re)connect
type SyncState struct {
	ActiveOrders []models.Order `json:"activeOrders"`
}

func (SyncState) Kind() MessageType { return TypeSyncState }

// StaffSync replaces the full staff list. PINs are masked before this
// ever leaves a device.
type StaffSync struct {
	Staff     []models.StaffMember `json:"staff"`
	Timestamp time.Time            `json:"timestamp,omitempty"`
}

func (StaffSync) Kind() MessageType { return TypeStaffSync }

// StaffAdded announces a new staff member
type StaffAdded struct {
	Staff models.StaffMember `json:"staff"`
}

func (StaffAdded) Kind() MessageType { return TypeStaffAdded }

// StaffUpdated announces a changed staff record
type StaffUpdated struct {
	Staff models.StaffMember `json:"staff"`
}

func (StaffUpdated) Kind() MessageType { return TypeStaffUpdated }

// StaffRemoved announces a deleted staff member
type StaffRemoved struct {
	StaffID string `json:"staffId"`
}

func (StaffRemoved) Kind() MessageType { return TypeStaffRemoved }

// FloorPlanSync replaces the full floor plan
type FloorPlanSync struct {
	Plan models.FloorPlan `json:"plan"`
}

func (FloorPlanSync) Kind() MessageType { return TypeFloorPlanSync }

// SectionAdded announces a new floor section
type SectionAdded struct {
	Section models.FloorSection `json:"section"`
}

func (SectionAdded) Kind() MessageType { return TypeSectionAdded }

// SectionRemoved announces a deleted floor section
type SectionRemoved struct {
	SectionID string `json:"sectionId"`
}

func (SectionRemoved) Kind() MessageType { return TypeSectionRemoved }

// TableAdded announces a new table on the floor plan
type TableAdded struct {
	Table models.Table `json:"table"`
}

func (TableAdded) Kind() MessageType { return TypeTableAdded }

// TableRemoved announces a deleted table
type TableRemoved struct {
	TableID string `json:"tableId"`
}

func (TableRemoved) Kind() MessageType { return TypeTableRemoved }

// TableStatusUpdated sets a table's state (available/occupied/...)
type TableStatusUpdated struct {
	TableID string             `json:"tableId"`
	Status  models.TableStatus `json:"status"`
}

func (TableStatusUpdated) Kind() MessageType { return TypeTableStatusUpdated }

// StaffAssigned assigns a service staff member to a table
type StaffAssigned struct {
	TableID string `json:"tableId"`
	StaffID string `json:"staffId"`
}

func (StaffAssigned) Kind() MessageType { return TypeStaffAssigned }

// RequestSync asks peers to send their current state. Sent right after
// a connection opens so the newly connected device catches up.
type RequestSync struct{}

func (RequestSync) Kind() MessageType { return TypeRequestSync }

// ServiceRequestCreated announces a guest call for service
type ServiceRequestCreated struct {
	Request models.ServiceRequest `json:"request"`
}

func (ServiceRequestCreated) Kind() MessageType { return TypeServiceRequest }

// ServiceRequestAcknowledged marks a service request as seen by staff
type ServiceRequestAcknowledged struct {
	RequestID string `json:"requestId"`
	StaffID   string `json:"staffId,omitempty"`
}

func (ServiceRequestAcknowledged) Kind() MessageType { return TypeServiceRequestAck }

// ServiceRequestResolved closes a service request
type ServiceRequestResolved struct {
	RequestID string `json:"requestId"`
	StaffID   string `json:"staffId,omitempty"`
}

func (ServiceRequestResolved) Kind() MessageType { return TypeServiceRequestDone }

// ItemReady tells service staff a prepared item is waiting at the pass
type ItemReady struct {
	OrderID     string `json:"orderId"`
	ItemID      string `json:"itemId"`
	ItemName    string `json:"itemName,omitempty"`
	TableNumber int    `json:"tableNumber,omitempty"`
}

func (ItemReady) Kind() MessageType { return TypeItemReady }

// Pong is the heartbeat reply from the cloud endpoint
type Pong struct{}

func (Pong) Kind() MessageType { return TypePong }

// UnknownTypeError reports a frame with a type tag we do not recognize.
// The router logs and ignores these; they must never stop processing.
type UnknownTypeError struct {
	Type MessageType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown sync message type %q", e.Type)
}

// DecodeMessage parses a wire frame into its typed variant
func DecodeMessage(data []byte) (Message, error) {
	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed sync frame: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("sync frame missing type field")
	}

	var msg Message
	switch head.Type {
	case TypeOrderCreated:
		msg = &OrderCreated{}
	case TypeQROrderCreated:
		msg = &QROrderCreated{}
	case TypeOrderStatusUpdate:
		msg = &OrderStatusUpdate{}
	case TypeItemStatusUpdate:
		msg = &ItemStatusUpdate{}
	case TypeSyncState:
		msg = &SyncState{}
	case TypeStaffSync:
		msg = &StaffSync{}
	case TypeStaffAdded:
		msg = &StaffAdded{}
	case TypeStaffUpdated:
		msg = &StaffUpdated{}
	case TypeStaffRemoved:
		msg = &StaffRemoved{}
	case TypeFloorPlanSync:
		msg = &FloorPlanSync{}
	case TypeSectionAdded:
		msg = &SectionAdded{}
	case TypeSectionRemoved:
		msg = &SectionRemoved{}
	case TypeTableAdded:
		msg = &TableAdded{}
	case TypeTableRemoved:
		msg = &TableRemoved{}
	case TypeTableStatusUpdated:
		msg = &TableStatusUpdated{}
	case TypeStaffAssigned:
		msg = &StaffAssigned{}
	case TypeRequestSync:
		msg = &RequestSync{}
	case TypeServiceRequest:
		msg = &ServiceRequestCreated{}
	case TypeServiceRequestAck:
		msg = &ServiceRequestAcknowledged{}
	case TypeServiceRequestDone:
		msg = &ServiceRequestResolved{}
	case TypeItemReady:
		msg = &ItemReady{}
	case TypePong:
		msg = &Pong{}
	default:
		return nil, &UnknownTypeError{Type: head.Type}
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
	}
	return msg, nil
}

// EncodeMessage serializes a message with its type tag
func EncodeMessage(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s message: %w", m.Kind(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	fields["type"], _ = json.Marshal(m.Kind())
	return json.Marshal(fields)
}
