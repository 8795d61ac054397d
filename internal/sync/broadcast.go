package sync

import (
	"log"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

// BroadcastResult reports the per-transport outcome of one broadcast so
// the caller can decide on user-facing feedback. Cloud is a plain
// success flag; LanClients is how many mesh clients received the frame
// (0 when the LAN path was not eligible).
type BroadcastResult struct {
	Cloud      bool `json:"cloud"`
	LanClients int  `json:"lanClients"`
}

// sendCloud serializes a message and pushes it over the cloud channel,
// reconnecting and polling first if the socket is closed
func (s *Service) sendCloud(msg Message) bool {
	frame, err := EncodeMessage(msg)
	if err != nil {
		log.Printf("[Sync] Failed to encode %s: %v", msg.Kind(), err)
		return false
	}
	return s.cloud.SendWithRetry(frame)
}

// lanEligible reports whether order broadcasts may take the LAN path:
// only when this device hosts the mesh and at least one client is
// registered
func (s *Service) lanEligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lan != nil && s.lanRole == "server" && s.lanClients > 0
}

// BroadcastOrderCreated announces a new order on every eligible path
func (s *Service) BroadcastOrderCreated(order models.Order, kitchenOrder models.KitchenOrder) BroadcastResult {
	// Remember our own orders so redeliveries from peers are discarded
	s.dedup.Seen(order.ID)
	s.applyOrder(order, kitchenOrder)

	result := BroadcastResult{}
	result.Cloud = s.sendCloud(&OrderCreated{Order: order, KitchenOrder: kitchenOrder})

	if s.lanEligible() {
		n, err := s.lan.BroadcastOrder(order, kitchenOrder)
		if err != nil {
			s.emitError("lan", err)
		} else {
			result.LanClients = n
		}
	}
	return result
}

// BroadcastQROrderCreated announces a guest QR order. QR orders arrive
// through the cloud only; the LAN path mirrors the order-created policy.
func (s *Service) BroadcastQROrderCreated(order models.Order, kitchenOrder models.KitchenOrder) BroadcastResult {
	s.dedup.Seen(order.ID)
	s.applyOrder(order, kitchenOrder)

	result := BroadcastResult{}
	result.Cloud = s.sendCloud(&QROrderCreated{Order: order, KitchenOrder: kitchenOrder})

	if s.lanEligible() {
		n, err := s.lan.BroadcastOrder(order, kitchenOrder)
		if err != nil {
			s.emitError("lan", err)
		} else {
			result.LanClients = n
		}
	}
	return result
}

// BroadcastOrderStatusUpdate announces an order status change
func (s *Service) BroadcastOrderStatusUpdate(orderID string, status models.OrderStatus, orderNumber string, tableNumber int) BroadcastResult {
	now := s.clock.Now()
	s.orders.ApplyStatus(orderID, status, now)
	if s.persist != nil {
		if err := s.persist.UpdateOrderStatus(orderID, status); err != nil {
			log.Printf("[Sync] Local journal update failed: %v", err)
		}
	}

	result := BroadcastResult{}
	result.Cloud = s.sendCloud(&OrderStatusUpdate{
		OrderID:     orderID,
		Status:      status,
		OrderNumber: orderNumber,
		TableNumber: tableNumber,
		UpdatedAt:   now,
	})

	if s.lanEligible() {
		if err := s.lan.BroadcastOrderStatus(orderID, string(status)); err != nil {
			s.emitError("lan", err)
		} else {
			s.mu.Lock()
			result.LanClients = s.lanClients
			s.mu.Unlock()
		}
	}
	return result
}

// BroadcastItemStatusUpdate announces a single-line status change.
// Cloud only.
func (s *Service) BroadcastItemStatusUpdate(orderID, itemID, status, itemName string) BroadcastResult {
	s.orders.ApplyItemStatus(orderID, itemID, status)
	return BroadcastResult{
		Cloud: s.sendCloud(&ItemStatusUpdate{OrderID: orderID, ItemID: itemID, Status: status, ItemName: itemName}),
	}
}

// BroadcastItemReady tells service staff an item is at the pass. Cloud
// only; the LAN path is reserved but not used yet.
func (s *Service) BroadcastItemReady(orderID, itemID, itemName string, tableNumber int) BroadcastResult {
	return BroadcastResult{
		Cloud: s.sendCloud(&ItemReady{OrderID: orderID, ItemID: itemID, ItemName: itemName, TableNumber: tableNumber}),
	}
}

// BroadcastSyncState pushes the full active-order snapshot, typically
// in response to a request_sync from a newly connected peer
func (s *Service) BroadcastSyncState() BroadcastResult {
	return BroadcastResult{
		Cloud: s.sendCloud(&SyncState{ActiveOrders: s.orders.Snapshot()}),
	}
}

// RequestSync pulls current state from peers
func (s *Service) RequestSync() BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&RequestSync{})}
}

// BroadcastStaffSync replaces the staff list on all devices. PIN values
// and hashes never leave this device: the local roster keeps the
// (hashed) credentials, the wire frame is redacted unconditionally.
func (s *Service) BroadcastStaffSync(staff []models.StaffMember) BroadcastResult {
	s.staff.Replace(staff)
	return BroadcastResult{
		Cloud: s.sendCloud(&StaffSync{
			Staff:     models.RedactStaff(staff),
			Timestamp: s.clock.Now(),
		}),
	}
}

// BroadcastStaffAdded announces a new staff member, PIN redacted
func (s *Service) BroadcastStaffAdded(staff models.StaffMember) BroadcastResult {
	s.staff.Upsert(staff)
	return BroadcastResult{Cloud: s.sendCloud(&StaffAdded{Staff: staff.Redacted()})}
}

// BroadcastStaffUpdated announces a staff change, PIN redacted
func (s *Service) BroadcastStaffUpdated(staff models.StaffMember) BroadcastResult {
	s.staff.Upsert(staff)
	return BroadcastResult{Cloud: s.sendCloud(&StaffUpdated{Staff: staff.Redacted()})}
}

// BroadcastStaffRemoved announces a staff deletion
func (s *Service) BroadcastStaffRemoved(staffID string) BroadcastResult {
	s.staff.Remove(staffID)
	return BroadcastResult{Cloud: s.sendCloud(&StaffRemoved{StaffID: staffID})}
}

// BroadcastFloorPlanSync replaces the floor plan on all devices
func (s *Service) BroadcastFloorPlanSync(plan models.FloorPlan) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&FloorPlanSync{Plan: plan})}
}

// BroadcastSectionAdded announces a new floor section
func (s *Service) BroadcastSectionAdded(section models.FloorSection) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&SectionAdded{Section: section})}
}

// BroadcastSectionRemoved announces a deleted floor section
func (s *Service) BroadcastSectionRemoved(sectionID string) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&SectionRemoved{SectionID: sectionID})}
}

// BroadcastTableAdded announces a new table
func (s *Service) BroadcastTableAdded(table models.Table) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&TableAdded{Table: table})}
}

// BroadcastTableRemoved announces a deleted table
func (s *Service) BroadcastTableRemoved(tableID string) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&TableRemoved{TableID: tableID})}
}

// BroadcastTableStatusUpdated sets a table's state everywhere
func (s *Service) BroadcastTableStatusUpdated(tableID string, status models.TableStatus) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&TableStatusUpdated{TableID: tableID, Status: status})}
}

// BroadcastStaffAssigned assigns service staff to a table everywhere
func (s *Service) BroadcastStaffAssigned(tableID, staffID string) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&StaffAssigned{TableID: tableID, StaffID: staffID})}
}

// BroadcastServiceRequest announces a guest service call
func (s *Service) BroadcastServiceRequest(request models.ServiceRequest) BroadcastResult {
	if request.CreatedAt.IsZero() {
		request.CreatedAt = s.clock.Now()
	}
	return BroadcastResult{Cloud: s.sendCloud(&ServiceRequestCreated{Request: request})}
}

// BroadcastServiceRequestAcknowledged marks a service call as seen
func (s *Service) BroadcastServiceRequestAcknowledged(requestID, staffID string) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&ServiceRequestAcknowledged{RequestID: requestID, StaffID: staffID})}
}

// BroadcastServiceRequestResolved closes a service call
func (s *Service) BroadcastServiceRequestResolved(requestID, staffID string) BroadcastResult {
	return BroadcastResult{Cloud: s.sendCloud(&ServiceRequestResolved{RequestID: requestID, StaffID: staffID})}
}
