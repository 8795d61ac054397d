package sync

import "github.com/suyeshs/hands-free-sub005/internal/models"

// Callbacks is the registry of domain event handlers. Every field is
// optional; a nil handler means the event is applied to local state and
// otherwise ignored. At most one registry is active per service
// instance; Initialize replaces the previous one wholesale.
type Callbacks struct {
	// Orders
	OnOrderCreated      func(order models.Order, kitchenOrder models.KitchenOrder)
	OnQROrderCreated    func(order models.Order, kitchenOrder models.KitchenOrder)
	OnOrderStatusUpdate func(orderID string, status models.OrderStatus, orderNumber string, tableNumber int)
	OnItemStatusUpdate  func(orderID, itemID, status, itemName string)
	OnItemReady         func(orderID, itemID, itemName string, tableNumber int)
	OnSyncState         func(activeOrders []models.Order)
	OnSyncRequested     func()

	// Staff
	OnStaffSync    func(staff []models.StaffMember)
	OnStaffAdded   func(staff models.StaffMember)
	OnStaffUpdated func(staff models.StaffMember)
	OnStaffRemoved func(staffID string)

	// Floor plan
	OnFloorPlanSync      func(plan models.FloorPlan)
	OnSectionAdded       func(section models.FloorSection)
	OnSectionRemoved     func(sectionID string)
	OnTableAdded         func(table models.Table)
	OnTableRemoved       func(tableID string)
	OnTableStatusUpdated func(tableID string, status models.TableStatus)
	OnStaffAssigned      func(tableID, staffID string)

	// Service requests
	OnServiceRequest             func(request models.ServiceRequest)
	OnServiceRequestAcknowledged func(requestID, staffID string)
	OnServiceRequestResolved     func(requestID, staffID string)

	// Infrastructure. OnError receives transient transport errors tagged
	// with the transport name ("cloud" or "lan"); OnStatusChange receives
	// the freshly aggregated (status, path) pair on every transport state
	// transition, never raw per-transport events.
	OnError        func(source string, err error)
	OnStatusChange func(status ConnectionState, path SyncPath)
}
