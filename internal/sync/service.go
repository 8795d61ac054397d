package sync

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/suyeshs/hands-free-sub005/internal/models"
	"github.com/suyeshs/hands-free-sub005/internal/store"
)

// RoleContext is derived once at Initialize from the device's declared
// operating mode. IsServer devices host the LAN mesh; all others
// connect to it as clients. Exactly one of server/client/none holds at
// any time.
type RoleContext struct {
	TenantID   string
	DeviceType string
	IsServer   bool
}

// Options wires the service's collaborators. Cloud transport, LAN
// collaborator and clock are all injected so tests can run isolated
// instances against fakes.
type Options struct {
	CloudBaseURL string
	CloudToken   string
	DeviceType   string
	IsLanHost    bool

	Dialer  CloudDialer     // nil = production gorilla dialer
	Lan     LanCollaborator // nil = cloud-only operation
	Clock   Clock           // nil = wall clock
	Store   *store.ActiveOrders
	Persist store.Persister // optional local journal
}

// Service is the multi-path order/state synchronization engine. One
// instance per process; it owns the cloud channel and the dedup cache
// exclusively.
type Service struct {
	// mu serializes all mutation of shared state. The original design
	// ran on a single event loop; a single mutex around the instance
	// preserves that guarantee in a multi-threaded runtime.
	mu sync.Mutex

	clock   Clock
	cloud   *CloudChannel
	lan     LanCollaborator
	dedup   *DedupCache
	orders  *store.ActiveOrders
	staff   *store.StaffDirectory
	persist store.Persister

	role        RoleContext
	callbacks   Callbacks
	initialized bool

	cloudState ConnectionState
	lanState   ConnectionState
	lanClients int
	lanRole    string // server | client | none
}

// NewService constructs a service from its collaborators. Initialize
// must be called before anything flows.
func NewService(opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	orders := opts.Store
	if orders == nil {
		orders = store.NewActiveOrders()
	}

	s := &Service{
		clock:      clock,
		lan:        opts.Lan,
		dedup:      NewDedupCache(clock),
		orders:     orders,
		staff:      store.NewStaffDirectory(),
		persist:    opts.Persist,
		cloudState: StateDisconnected,
		lanState:   StateDisconnected,
		lanRole:    "none",
	}
	s.role.DeviceType = opts.DeviceType
	s.role.IsServer = opts.IsLanHost

	s.cloud = NewCloudChannel(opts.CloudBaseURL, opts.CloudToken, opts.Dialer, clock)
	s.cloud.SetHandlers(s.handleCloudFrame, s.setCloudState, func(err error) {
		s.emitError("cloud", err)
	})
	return s
}

// Initialize starts both transports for tenantID and installs the
// callback registry, replacing any previous one.
func (s *Service) Initialize(tenantID string, callbacks Callbacks) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return fmt.Errorf("sync service already initialized")
	}
	s.initialized = true
	s.role.TenantID = tenantID
	s.callbacks = callbacks
	isServer := s.role.IsServer
	deviceType := s.role.DeviceType
	s.mu.Unlock()

	log.Printf("[Sync] Initializing for tenant %s (device=%s, lanHost=%v)", tenantID, deviceType, isServer)

	s.cloud.SetTenant(tenantID)
	go s.cloud.Connect()

	if s.lan != nil {
		s.lan.Subscribe(s.lanEvents())
		go s.startLan(tenantID, deviceType, isServer)
	}
	return nil
}

// startLan takes exactly one of the two LAN paths. Setup failures are
// surfaced tagged "lan" and the service carries on cloud-only.
func (s *Service) startLan(tenantID, deviceType string, isServer bool) {
	if isServer {
		s.setLanConnecting()
		addr, err := s.lan.StartServer(tenantID)
		if err != nil {
			s.emitError("lan", fmt.Errorf("failed to start LAN server: %w", err))
			s.setLanState(StateDisconnected)
			return
		}
		s.mu.Lock()
		s.lanRole = "server"
		s.mu.Unlock()
		log.Printf("[LAN] Server listening at %s", addr)
		s.setLanState(StateConnected)
		return
	}

	s.setLanConnecting()
	status, err := s.lan.ConnectAsClient(deviceType, tenantID)
	if err != nil {
		s.emitError("lan", fmt.Errorf("failed to connect to LAN host: %w", err))
		s.setLanState(StateDisconnected)
		return
	}
	if status == nil {
		log.Printf("[LAN] No host found, staying on cloud sync")
		s.setLanState(StateDisconnected)
		return
	}
	s.mu.Lock()
	s.lanRole = "client"
	s.mu.Unlock()
	// The collaborator's OnConnected event drives the state transition
}

// Shutdown tears both transports down, clears the dedup cache and all
// in-memory state. Synchronous: no timer fires after it returns.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = false
	lanRole := s.lanRole
	s.lanRole = "none"
	s.callbacks = Callbacks{}
	s.role.TenantID = ""
	s.lanClients = 0
	s.cloudState = StateDisconnected
	s.lanState = StateDisconnected
	s.mu.Unlock()

	s.cloud.Shutdown()
	if s.lan != nil {
		switch lanRole {
		case "server":
			if err := s.lan.StopServer(); err != nil {
				log.Printf("[LAN] Stop failed: %v", err)
			}
		case "client":
			if err := s.lan.Disconnect(); err != nil {
				log.Printf("[LAN] Disconnect failed: %v", err)
			}
		}
	}
	s.dedup.Clear()
	s.orders.Clear()
	s.staff.Clear()
	log.Printf("[Sync] Shut down")
}

// GetConnectionStatus aggregates both transports into one status
func (s *Service) GetConnectionStatus() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AggregateStatus(s.cloudState, s.lanState)
}

// GetActiveSyncPath reports which transport(s) currently carry traffic
func (s *Service) GetActiveSyncPath() SyncPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActivePath(s.cloudState, s.lanState)
}

// GetDetailedStatus returns the full connection picture
func (s *Service) GetDetailedStatus() DetailedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DetailedStatus{
		Status:     AggregateStatus(s.cloudState, s.lanState),
		ActivePath: ActivePath(s.cloudState, s.lanState),
		Cloud:      s.cloudState,
		Lan:        s.lanState,
		LanRole:    s.lanRole,
		LanClients: s.lanClients,
		TenantID:   s.role.TenantID,
	}
}

// ActiveOrders exposes the in-memory order view (for the status surface
// and sync-state snapshots)
func (s *Service) ActiveOrders() []models.Order {
	return s.orders.Snapshot()
}

// Staff exposes the staff roster, kept current by staff broadcasts in
// both directions. PIN verification goes through here.
func (s *Service) Staff() *store.StaffDirectory {
	return s.staff
}

// setCloudState records a cloud transition and fans out the freshly
// aggregated (status, path) pair
func (s *Service) setCloudState(state ConnectionState) {
	s.mu.Lock()
	s.cloudState = state
	status := AggregateStatus(s.cloudState, s.lanState)
	path := ActivePath(s.cloudState, s.lanState)
	notify := s.callbacks.OnStatusChange
	s.mu.Unlock()

	if notify != nil {
		notify(status, path)
	}
}

func (s *Service) setLanState(state ConnectionState) {
	s.mu.Lock()
	s.lanState = state
	if state == StateDisconnected {
		s.lanClients = 0
	}
	status := AggregateStatus(s.cloudState, s.lanState)
	path := ActivePath(s.cloudState, s.lanState)
	notify := s.callbacks.OnStatusChange
	s.mu.Unlock()

	if notify != nil {
		notify(status, path)
	}
}

func (s *Service) setLanConnecting() {
	s.setLanState(StateConnecting)
}

func (s *Service) emitError(source string, err error) {
	s.mu.Lock()
	notify := s.callbacks.OnError
	s.mu.Unlock()
	if notify != nil {
		notify(source, err)
	}
}

// lanEvents adapts collaborator events onto the shared message router
// so cloud and LAN deliveries hit the same dedup check
func (s *Service) lanEvents() LanEvents {
	return LanEvents{
		OnOrderCreated: func(order models.Order, kitchenOrder models.KitchenOrder) {
			s.dispatch(&OrderCreated{Order: order, KitchenOrder: kitchenOrder}, "lan")
		},
		OnOrderStatusUpdate: func(orderID string, status string, updatedAt time.Time) {
			s.dispatch(&OrderStatusUpdate{
				OrderID:   orderID,
				Status:    models.OrderStatus(status),
				UpdatedAt: updatedAt,
			}, "lan")
		},
		OnSyncState: func(orders []models.Order) {
			s.dispatch(&SyncState{ActiveOrders: orders}, "lan")
		},
		OnConnected: func() {
			s.setLanState(StateConnected)
		},
		OnDisconnected: func() {
			s.setLanState(StateDisconnected)
		},
		OnClientConnected: func(client LanClientInfo) {
			s.mu.Lock()
			s.lanClients++
			s.mu.Unlock()
			log.Printf("[LAN] Client connected: %s (%s)", client.ClientID, client.DeviceType)
		},
		OnClientDisconnected: func(clientID string) {
			s.mu.Lock()
			if s.lanClients > 0 {
				s.lanClients--
			}
			s.mu.Unlock()
			log.Printf("[LAN] Client disconnected: %s", clientID)
		},
		OnError: func(err error) {
			s.emitError("lan", err)
		},
	}
}

// handleCloudFrame parses and routes one inbound cloud frame. A
// malformed or unknown frame is logged and dropped; processing of
// later frames always continues.
func (s *Service) handleCloudFrame(data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		log.Printf("[Sync] Discarding frame: %v", err)
		return
	}
	s.dispatch(msg, "cloud")
}

// dispatch applies one inbound message: dedup check for order-bearing
// messages, domain state update, local persistence side effect, then
// the matching callback. Non-order messages are not deduplicated; their
// handlers are state-setting and naturally idempotent.
func (s *Service) dispatch(msg Message, source string) {
	if d, ok := msg.(deduplicated); ok {
		if s.dedup.Seen(d.DedupID()) {
			log.Printf("[Sync] Duplicate %s for order %s via %s, discarding", msg.Kind(), d.DedupID(), source)
			return
		}
	}

	s.mu.Lock()
	cb := s.callbacks
	s.mu.Unlock()

	switch m := msg.(type) {
	case *OrderCreated:
		s.applyOrder(m.Order, m.KitchenOrder)
		if cb.OnOrderCreated != nil {
			cb.OnOrderCreated(m.Order, m.KitchenOrder)
		}
	case *QROrderCreated:
		s.applyOrder(m.Order, m.KitchenOrder)
		if cb.OnQROrderCreated != nil {
			cb.OnQROrderCreated(m.Order, m.KitchenOrder)
		}
	case *OrderStatusUpdate:
		s.orders.ApplyStatus(m.OrderID, m.Status, m.UpdatedAt)
		if s.persist != nil {
			if err := s.persist.UpdateOrderStatus(m.OrderID, m.Status); err != nil {
				log.Printf("[Sync] Local journal update failed: %v", err)
			}
		}
		if cb.OnOrderStatusUpdate != nil {
			cb.OnOrderStatusUpdate(m.OrderID, m.Status, m.OrderNumber, m.TableNumber)
		}
	case *ItemStatusUpdate:
		s.orders.ApplyItemStatus(m.OrderID, m.ItemID, m.Status)
		if cb.OnItemStatusUpdate != nil {
			cb.OnItemStatusUpdate(m.OrderID, m.ItemID, m.Status, m.ItemName)
		}
	case *SyncState:
		s.orders.Replace(m.ActiveOrders)
		log.Printf("[Sync] Applied state snapshot: %d active orders via %s", len(m.ActiveOrders), source)
		if cb.OnSyncState != nil {
			cb.OnSyncState(m.ActiveOrders)
		}
	case *RequestSync:
		if cb.OnSyncRequested != nil {
			cb.OnSyncRequested()
		}
	case *StaffSync:
		s.staff.Replace(m.Staff)
		if cb.OnStaffSync != nil {
			cb.OnStaffSync(m.Staff)
		}
	case *StaffAdded:
		s.staff.Upsert(m.Staff)
		if cb.OnStaffAdded != nil {
			cb.OnStaffAdded(m.Staff)
		}
	case *StaffUpdated:
		s.staff.Upsert(m.Staff)
		if cb.OnStaffUpdated != nil {
			cb.OnStaffUpdated(m.Staff)
		}
	case *StaffRemoved:
		s.staff.Remove(m.StaffID)
		if cb.OnStaffRemoved != nil {
			cb.OnStaffRemoved(m.StaffID)
		}
	case *FloorPlanSync:
		if cb.OnFloorPlanSync != nil {
			cb.OnFloorPlanSync(m.Plan)
		}
	case *SectionAdded:
		if cb.OnSectionAdded != nil {
			cb.OnSectionAdded(m.Section)
		}
	case *SectionRemoved:
		if cb.OnSectionRemoved != nil {
			cb.OnSectionRemoved(m.SectionID)
		}
	case *TableAdded:
		if cb.OnTableAdded != nil {
			cb.OnTableAdded(m.Table)
		}
	case *TableRemoved:
		if cb.OnTableRemoved != nil {
			cb.OnTableRemoved(m.TableID)
		}
	case *TableStatusUpdated:
		if cb.OnTableStatusUpdated != nil {
			cb.OnTableStatusUpdated(m.TableID, m.Status)
		}
	case *StaffAssigned:
		if cb.OnStaffAssigned != nil {
			cb.OnStaffAssigned(m.TableID, m.StaffID)
		}
	case *ServiceRequestCreated:
		if cb.OnServiceRequest != nil {
			cb.OnServiceRequest(m.Request)
		}
	case *ServiceRequestAcknowledged:
		if cb.OnServiceRequestAcknowledged != nil {
			cb.OnServiceRequestAcknowledged(m.RequestID, m.StaffID)
		}
	case *ServiceRequestResolved:
		if cb.OnServiceRequestResolved != nil {
			cb.OnServiceRequestResolved(m.RequestID, m.StaffID)
		}
	case *ItemReady:
		if cb.OnItemReady != nil {
			cb.OnItemReady(m.OrderID, m.ItemID, m.ItemName, m.TableNumber)
		}
	case *Pong:
		// Heartbeat reply, nothing to apply
	default:
		log.Printf("[Sync] No dispatch for %s, ignoring", msg.Kind())
	}
}

func (s *Service) applyOrder(order models.Order, kitchenOrder models.KitchenOrder) {
	s.orders.Apply(order)
	if s.persist != nil {
		if err := s.persist.SaveOrder(order, kitchenOrder); err != nil {
			log.Printf("[Sync] Local journal save failed: %v", err)
		}
	}
}
