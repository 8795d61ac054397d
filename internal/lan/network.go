// Package lan is the local-network sync transport: the POS terminal
// hosts a WebSocket server on the LAN, kitchen/bar displays and
// handhelds connect as clients, and order traffic keeps flowing when
// the internet is down. Discovery is deliberately simple: clients are
// pointed at the host's address, and mDNS advertisement lives outside
// this module.
package lan

import (
	"fmt"
	"sync"

	"github.com/suyeshs/hands-free-sub005/internal/models"
	syncsvc "github.com/suyeshs/hands-free-sub005/internal/sync"
)

// Network implements sync.LanCollaborator. One instance per process;
// depending on the device role it runs either the server or a client,
// never both.
type Network struct {
	mu sync.Mutex

	port       string
	serverAddr string // where clients find the host
	token      string // device token presented on register
	secret     string // JWT secret the host validates register tokens with

	events   syncsvc.LanEvents
	snapshot func() []models.Order

	server *Server
	client *Client
}

var _ syncsvc.LanCollaborator = (*Network)(nil)

// New creates a LAN network on port. serverAddr is the host address
// client devices dial; leave it empty on the host itself. token, when
// non-empty, is presented in the register handshake; secret, when
// non-empty, makes the host validate register tokens and reject
// clients that present a bad one.
func New(port, serverAddr, token, secret string) *Network {
	if port == "" {
		port = DefaultPort
	}
	return &Network{port: port, serverAddr: serverAddr, token: token, secret: secret}
}

// Subscribe registers the event handlers. Call before StartServer or
// ConnectAsClient.
func (n *Network) Subscribe(events syncsvc.LanEvents) {
	n.mu.Lock()
	n.events = events
	n.mu.Unlock()
}

// SetSnapshotProvider wires the active-order snapshot pushed to newly
// registered clients
func (n *Network) SetSnapshotProvider(fn func() []models.Order) {
	n.mu.Lock()
	n.snapshot = fn
	n.mu.Unlock()
}

// StartServer hosts the LAN mesh and returns the ws:// address
func (n *Network) StartServer(tenantID string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.server != nil {
		return "", fmt.Errorf("LAN server already running")
	}
	if n.client != nil {
		return "", fmt.Errorf("cannot host while connected as a client")
	}

	srv := newServer(n.port, tenantID, n.secret, n.events, func() []models.Order {
		n.mu.Lock()
		fn := n.snapshot
		n.mu.Unlock()
		if fn == nil {
			return nil
		}
		return fn()
	})
	addr, err := srv.start()
	if err != nil {
		return "", err
	}
	n.server = srv
	return addr, nil
}

// StopServer shuts the host down
func (n *Network) StopServer() error {
	n.mu.Lock()
	srv := n.server
	n.server = nil
	n.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.stop()
}

// ConnectAsClient registers with the LAN host. Returns (nil, nil) when
// no host address is configured; the device stays on cloud-only sync.
func (n *Network) ConnectAsClient(deviceType, tenantID string) (*syncsvc.LanClientStatus, error) {
	n.mu.Lock()
	if n.server != nil {
		n.mu.Unlock()
		return nil, fmt.Errorf("cannot connect as client while hosting")
	}
	if n.client != nil {
		n.mu.Unlock()
		return nil, fmt.Errorf("already connected to a LAN host")
	}
	addr := n.serverAddr
	token := n.token
	events := n.events
	n.mu.Unlock()

	if addr == "" {
		return nil, nil
	}

	client := newClient(deviceType, tenantID, addr, token, events)
	status, err := client.connect()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.client = client
	n.mu.Unlock()
	return status, nil
}

// Disconnect drops the client link
func (n *Network) Disconnect() error {
	n.mu.Lock()
	client := n.client
	n.client = nil
	n.mu.Unlock()

	if client != nil {
		client.disconnect()
	}
	return nil
}

// BroadcastOrder fans a new order out to every registered client
func (n *Network) BroadcastOrder(order models.Order, kitchenOrder models.KitchenOrder) (int, error) {
	n.mu.Lock()
	srv := n.server
	n.mu.Unlock()

	if srv == nil {
		return 0, fmt.Errorf("LAN server is not running")
	}
	frame, err := syncsvc.EncodeMessage(&syncsvc.OrderCreated{Order: order, KitchenOrder: kitchenOrder})
	if err != nil {
		return 0, err
	}
	return srv.broadcast(frame), nil
}

// BroadcastOrderStatus fans an order status change out to clients
func (n *Network) BroadcastOrderStatus(orderID string, status string) error {
	n.mu.Lock()
	srv := n.server
	n.mu.Unlock()

	if srv == nil {
		return fmt.Errorf("LAN server is not running")
	}
	frame, err := syncsvc.EncodeMessage(&syncsvc.OrderStatusUpdate{
		OrderID: orderID,
		Status:  models.OrderStatus(status),
	})
	if err != nil {
		return err
	}
	srv.broadcast(frame)
	return nil
}

// ClientCount returns how many clients are registered with the host
func (n *Network) ClientCount() int {
	n.mu.Lock()
	srv := n.server
	n.mu.Unlock()

	if srv == nil {
		return 0
	}
	return srv.clientCount()
}
