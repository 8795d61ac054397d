package sync

import (
	"time"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

// LanClientInfo describes a device connected to the LAN sync server
type LanClientInfo struct {
	ClientID    string    `json:"clientId"`
	DeviceType  string    `json:"deviceType"`
	ConnectedAt time.Time `json:"connectedAt"`
	IPAddress   string    `json:"ipAddress"`
}

// LanClientStatus describes this device's client-side LAN link
type LanClientStatus struct {
	IsConnected   bool   `json:"isConnected"`
	ServerAddress string `json:"serverAddress,omitempty"`
	ClientID      string `json:"clientId,omitempty"`
	DeviceType    string `json:"deviceType"`
}

// LanEvents are the notifications the LAN collaborator delivers back to
// the sync service. Handlers are invoked from the collaborator's own
// goroutines and must be safe to call concurrently.
type LanEvents struct {
	OnOrderCreated       func(order models.Order, kitchenOrder models.KitchenOrder)
	OnOrderStatusUpdate  func(orderID string, status string, updatedAt time.Time)
	OnSyncState          func(orders []models.Order)
	OnConnected          func()
	OnDisconnected       func()
	OnClientConnected    func(client LanClientInfo)
	OnClientDisconnected func(clientID string)
	OnError              func(err error)
}

// LanCollaborator is the local-network transport this service consumes.
// The POS terminal calls StartServer and hosts the mesh; every other
// device type calls ConnectAsClient. Exactly one of the two paths is
// taken per process, never both.
type LanCollaborator interface {
	// StartServer binds the LAN sync server and returns its ws:// address
	StartServer(tenantID string) (string, error)
	// StopServer shuts the server down and drops all clients
	StopServer() error
	// ConnectAsClient finds the host and registers with it. A nil status
	// with a nil error means no host was found; the caller stays on
	// cloud-only sync.
	ConnectAsClient(deviceType, tenantID string) (*LanClientStatus, error)
	// Disconnect drops the client-side link
	Disconnect() error
	// BroadcastOrder fans an order out to connected clients and returns
	// how many received it
	BroadcastOrder(order models.Order, kitchenOrder models.KitchenOrder) (int, error)
	// BroadcastOrderStatus fans an order status change out to clients
	BroadcastOrderStatus(orderID string, status string) error
	// Subscribe registers the event handlers; call before StartServer or
	// ConnectAsClient
	Subscribe(events LanEvents)
	// ClientCount returns how many clients are registered (server role)
	ClientCount() int
}
